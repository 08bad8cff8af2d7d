package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	forwardDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/forward/domain"
	postDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/post/domain"
	"github.com/reshetovitsme/x-telegram-relay/internal/modules/watch/domain"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/errors"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/metrics"
	"github.com/samber/lo"
)

// Source lists the monitored account's recent posts, newest first
type Source interface {
	RecentPosts(ctx context.Context, accountID string, limit int) ([]*postDomain.Post, error)
}

// Renderer delivers a post to the destination channel
type Renderer interface {
	RenderAndSend(ctx context.Context, p *postDomain.Post) (*forwardDomain.SendResult, error)
}

// Ledger atomically checks and records forwarded post ids
type Ledger interface {
	Claim(postID string) bool
}

// Notifier tells the chat that enabled watch mode about failed deliveries
type Notifier interface {
	Reply(ctx context.Context, chatID int64, text string) error
}

// Options configures the poller
type Options struct {
	AccountID string
	Limit     int
	Interval  time.Duration
	// IterationTimeout bounds one poll including rendering and sending.
	IterationTimeout time.Duration
}

// Service runs the watch mode poller. At most one polling task exists at a
// time; disabling cancels it and waits for it to exit.
type Service struct {
	source   Source
	renderer Renderer
	ledger   Ledger
	notifier Notifier
	opts     Options

	// toggleMu serializes Enable and Disable, mu guards state.
	toggleMu sync.Mutex
	mu       sync.RWMutex
	state    domain.State
	cancel   context.CancelFunc
	done     chan struct{}

	// claimed holds the ids this poller forwarded, newest first, so manual
	// records evicting them from the shared ledger never cause a repeat.
	// Only the polling goroutine touches it.
	claimed []string

	after func(time.Duration) <-chan time.Time
	now   func() time.Time
}

// New creates a disabled watcher
func New(source Source, renderer Renderer, ledger Ledger, opts Options) *Service {
	return &Service{
		source:   source,
		renderer: renderer,
		ledger:   ledger,
		opts:     opts,
		after:    time.After,
		now:      time.Now,
	}
}

// SetNotifier sets the failure notifier
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// Toggle flips watch mode on behalf of chatID and returns the new state.
func (s *Service) Toggle(chatID int64) domain.State {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	if s.done != nil {
		s.disable(chatID)
	} else {
		s.enable(chatID)
	}
	return s.State()
}

// Enable starts polling unless it is already running.
func (s *Service) Enable(chatID int64) domain.State {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	if s.done == nil {
		s.enable(chatID)
	}
	return s.State()
}

// Disable stops polling and waits for the running iteration to finish.
func (s *Service) Disable(chatID int64) domain.State {
	s.toggleMu.Lock()
	defer s.toggleMu.Unlock()

	if s.done != nil {
		s.disable(chatID)
	}
	return s.State()
}

// Stop disables polling on shutdown
func (s *Service) Stop() {
	s.Disable(s.State().ChatID)
}

// State returns a snapshot of the watch state.
func (s *Service) State() domain.State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

func (s *Service) enable(chatID int64) {
	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.done = make(chan struct{})

	s.mu.Lock()
	s.state.Enabled = true
	s.state.ChatID = chatID
	s.state.ToggledAt = s.now()
	s.mu.Unlock()

	metrics.WatchEnabled.Set(1)
	slog.Info("Watch mode enabled", "chat_id", chatID, "account_id", s.opts.AccountID, "interval", s.opts.Interval)

	go s.loop(ctx, s.done)
}

func (s *Service) disable(chatID int64) {
	s.cancel()
	<-s.done
	s.cancel = nil
	s.done = nil

	s.mu.Lock()
	s.state.Enabled = false
	s.state.ChatID = chatID
	s.state.ToggledAt = s.now()
	s.mu.Unlock()

	metrics.WatchEnabled.Set(0)
	slog.Info("Watch mode disabled", "chat_id", chatID)
}

func (s *Service) loop(ctx context.Context, done chan struct{}) {
	defer close(done)

	for {
		wait := s.poll(ctx)

		select {
		case <-ctx.Done():
			return
		case <-s.after(wait):
		}
	}
}

// poll runs one iteration and returns how long to wait before the next.
// Iteration work is detached from cancellation so a disable request lets
// it finish.
func (s *Service) poll(ctx context.Context) (wait time.Duration) {
	wait = s.opts.Interval

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Watch iteration panic recovered", "panic", r)
			s.setLastError(fmt.Sprint(r))
		}
	}()

	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.opts.IterationTimeout)
	defer cancel()

	metrics.PollsTotal.Inc()
	s.mu.Lock()
	s.state.LastPollAt = s.now()
	s.mu.Unlock()

	posts, err := s.source.RecentPosts(ctx, s.opts.AccountID, s.opts.Limit)
	if err != nil {
		s.setLastError(err.Error())
		if stderrors.Is(err, errors.ErrRateLimited) {
			metrics.RateLimitedTotal.Inc()
			slog.Warn("Rate limited by source API, backing off", "extra_wait", s.opts.Interval)
			return 2 * s.opts.Interval
		}
		slog.Error("Failed to fetch recent posts", "account_id", s.opts.AccountID, "error", err)
		return wait
	}

	post, ok := lo.Find(posts, func(p *postDomain.Post) bool {
		return !p.IsReplyOrRetweet
	})
	if !ok {
		slog.Debug("No top-level post among recent posts", "count", len(posts))
		return wait
	}

	if slices.Contains(s.claimed, post.ID) {
		slog.Debug("Newest post already forwarded by watch mode", "post_id", post.ID)
		return wait
	}
	s.remember(post.ID)

	if !s.ledger.Claim(post.ID) {
		slog.Debug("Newest post already forwarded", "post_id", post.ID)
		return wait
	}

	slog.Info("Forwarding new post", "post_id", post.ID)
	result, err := s.renderer.RenderAndSend(ctx, post)
	if err != nil {
		slog.Error("Failed to forward post", "post_id", post.ID, "error", err)
		metrics.ForwardFailuresTotal.WithLabelValues(metrics.SourceWatch, "delivery_failed").Inc()
		s.setLastError(err.Error())
		s.notify(ctx, fmt.Sprintf("❌ Watch mode failed to forward tweet %s.", post.ID))
		return wait
	}

	metrics.ForwardedTotal.WithLabelValues(metrics.SourceWatch).Inc()
	slog.Info("Post forwarded", "post_id", post.ID, "kind", result.Kind, "media_failed", result.MediaFailed)

	s.mu.Lock()
	s.state.LastPostID = post.ID
	s.state.LastError = ""
	s.mu.Unlock()
	return wait
}

// remember keeps as many claimed ids as one poll can return.
func (s *Service) remember(postID string) {
	s.claimed = slices.Insert(s.claimed, 0, postID)
	if limit := max(s.opts.Limit, 1); len(s.claimed) > limit {
		s.claimed = s.claimed[:limit]
	}
}

func (s *Service) setLastError(msg string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.LastError = msg
}

func (s *Service) notify(ctx context.Context, text string) {
	chatID := s.State().ChatID
	if s.notifier == nil || chatID == 0 {
		return
	}
	if err := s.notifier.Reply(ctx, chatID, text); err != nil {
		slog.Error("Failed to notify watch chat", "chat_id", chatID, "error", err)
	}
}
