package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus/promhttp"
	feedService "github.com/reshetovitsme/x-telegram-relay/internal/modules/feed/service"
	ledgerDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/ledger/domain"
	watchDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/watch/domain"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/config"
	"github.com/samber/oops"
	sloghttp "github.com/samber/slog-http"
)

// WatchState reports the current watch mode state
type WatchState interface {
	State() watchDomain.State
}

// Queue reports the manual submission backlog
type Queue interface {
	Len() int
	Capacity() int
}

// History exposes recently forwarded posts
type History interface {
	Recent() []ledgerDomain.ForwardRecord
}

// StatusResponse is the body of GET /status
type StatusResponse struct {
	Account   string                       `json:"account"`
	Watch     watchDomain.State            `json:"watch"`
	Queue     QueueStatus                  `json:"queue"`
	Forwarded []ledgerDomain.ForwardRecord `json:"forwarded"`
}

// QueueStatus is the submission queue part of StatusResponse
type QueueStatus struct {
	Pending  int `json:"pending"`
	Capacity int `json:"capacity"`
}

// Server serves health, status, metrics and the relayed posts feed
type Server struct {
	cfg         *config.Config
	feedService *feedService.Service
	watch       WatchState
	queue       Queue
	history     History
	logger      *slog.Logger
	server      *http.Server
}

// New creates a new HTTP server
func New(cfg *config.Config, feedService *feedService.Service, watch WatchState, queue Queue, history History) *Server {
	s := &Server{
		cfg:         cfg,
		feedService: feedService,
		watch:       watch,
		queue:       queue,
		history:     history,
		logger:      slog.Default(),
	}
	s.server = &http.Server{
		Addr:         fmt.Sprintf(":%s", cfg.HTTPPort),
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}
	s.server.Handler = s.Handler()
	return s
}

// SetLogger sets the logger
func (s *Server) SetLogger(logger *slog.Logger) {
	s.logger = logger
	s.server.Handler = s.Handler()
}

// Handler returns the routed handler wrapped with request logging and recovery
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /feed", s.handleFeed)
	mux.HandleFunc("GET /status", s.handleStatus)
	mux.HandleFunc("GET /health", s.handleHealth)
	mux.Handle("GET /metrics", promhttp.Handler())
	mux.HandleFunc("GET /{$}", s.handleRoot)

	handler := sloghttp.Recovery(mux)
	return sloghttp.New(s.logger)(handler)
}

// Start starts the HTTP server and blocks until it stops
func (s *Server) Start() error {
	s.logger.Info("HTTP server starting", "addr", s.server.Addr)

	if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return oops.With("addr", s.server.Addr, "context", "http server failed").Wrap(err)
	}
	return nil
}

// Shutdown stops accepting connections and waits for active requests.
// A server shut down before Start never starts listening.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.server.Shutdown(ctx)
}

func (s *Server) handleFeed(w http.ResponseWriter, r *http.Request) {
	baseURL := fmt.Sprintf("%s://%s", getScheme(r), r.Host)
	feed := s.feedService.GenerateFeed(baseURL)

	var (
		body        string
		err         error
		contentType string
	)
	switch r.URL.Query().Get("format") {
	case "atom":
		body, err = feed.ToAtom()
		contentType = "application/atom+xml; charset=utf-8"
	case "json":
		body, err = feed.ToJSON()
		contentType = "application/feed+json; charset=utf-8"
	default:
		body, err = feed.ToRss()
		contentType = "application/rss+xml; charset=utf-8"
	}
	if err != nil {
		s.logger.Error("Error rendering feed", "error", err)
		http.Error(w, "Failed to generate feed", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Cache-Control", "public, max-age=60")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(body))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	resp := StatusResponse{
		Account: s.cfg.TwitterUsername,
		Watch:   s.watch.State(),
		Queue: QueueStatus{
			Pending:  s.queue.Len(),
			Capacity: s.queue.Capacity(),
		},
		Forwarded: s.history.Recent(),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		s.logger.Error("Error encoding status", "error", err)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleRoot(w http.ResponseWriter, r *http.Request) {
	html := fmt.Sprintf(`<!DOCTYPE html>
<html>
<head>
    <title>X Telegram Relay</title>
    <style>
        body { font-family: Arial, sans-serif; max-width: 800px; margin: 50px auto; padding: 20px; }
        h1 { color: #333; }
        .info { background: #f5f5f5; padding: 15px; border-radius: 5px; margin: 20px 0; }
        code { background: #e8e8e8; padding: 2px 6px; border-radius: 3px; }
    </style>
</head>
<body>
    <h1>X Telegram Relay</h1>
    <div class="info">
        <p>Relays posts by <code>@%s</code> to Telegram.</p>
        <p>Relayed posts feed: <a href="/feed">/feed</a> (<a href="/feed?format=atom">Atom</a>, <a href="/feed?format=json">JSON</a>)</p>
    </div>
    <p><a href="/status">Status</a> | <a href="/health">Health Check</a> | <a href="/metrics">Metrics</a></p>
</body>
</html>`, s.cfg.TwitterUsername)
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(html))
}

func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
