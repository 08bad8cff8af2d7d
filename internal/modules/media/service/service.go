package service

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"path"
	"strings"
	"time"

	"github.com/reshetovitsme/x-telegram-relay/internal/modules/media/domain"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/errors"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/metrics"
)

// Service downloads attachment payloads. Each fetch is a single GET
// without retries.
type Service struct {
	httpClient *http.Client
	maxBytes   int64
}

// New creates a fetcher bounded by timeout and maxBytes per payload
func New(timeout time.Duration, maxBytes int64) *Service {
	return &Service{
		httpClient: &http.Client{Timeout: timeout},
		maxBytes:   maxBytes,
	}
}

// Fetch downloads rawURL. Every failure is a *domain.FetchError wrapping
// ErrFetchFailed.
func (s *Service) Fetch(ctx context.Context, rawURL string) (*domain.Media, error) {
	m, err := s.fetch(ctx, rawURL)
	if err != nil {
		metrics.MediaFetchFailuresTotal.Inc()
		return nil, err
	}
	return m, nil
}

func (s *Service) fetch(ctx context.Context, rawURL string) (*domain.Media, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fetchError(rawURL, 0, err)
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return nil, fetchError(rawURL, 0, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fetchError(rawURL, resp.StatusCode, nil)
	}

	reader := io.Reader(resp.Body)
	if s.maxBytes > 0 {
		reader = io.LimitReader(resp.Body, s.maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fetchError(rawURL, resp.StatusCode, err)
	}
	if s.maxBytes > 0 && int64(len(data)) > s.maxBytes {
		return nil, fetchError(rawURL, resp.StatusCode, fmt.Errorf("payload exceeds %d bytes", s.maxBytes))
	}

	return &domain.Media{
		URL:         rawURL,
		Data:        data,
		Extension:   Extension(rawURL),
		ContentType: resp.Header.Get("Content-Type"),
	}, nil
}

// Extension returns the extension of the URL's last path segment,
// without the dot and ignoring any query string.
func Extension(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return ""
	}
	return strings.ToLower(strings.TrimPrefix(path.Ext(u.Path), "."))
}

func fetchError(rawURL string, status int, cause error) error {
	err := errors.ErrFetchFailed
	if cause != nil {
		err = fmt.Errorf("%w: %w", errors.ErrFetchFailed, cause)
	}
	return &domain.FetchError{URL: rawURL, Status: status, Err: err}
}
