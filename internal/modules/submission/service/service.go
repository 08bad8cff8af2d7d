package service

import (
	"context"
	stderrors "errors"
	"fmt"
	"log/slog"
	"regexp"
	"sync"
	"time"

	"github.com/google/uuid"
	forwardDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/forward/domain"
	postDomain "github.com/reshetovitsme/x-telegram-relay/internal/modules/post/domain"
	"github.com/reshetovitsme/x-telegram-relay/internal/modules/submission/domain"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/errors"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/metrics"
	"github.com/samber/oops"
)

var postURLPattern = regexp.MustCompile(`https://(?:www\.)?(?:twitter|x)\.com/\w+/status/(\d+)`)

// ExtractPostID finds the first post URL in text and returns its id.
func ExtractPostID(text string) (string, error) {
	match := postURLPattern.FindStringSubmatch(text)
	if match == nil {
		return "", errors.ErrInvalidInput
	}
	return match[1], nil
}

// PostSource looks up a single post by id
type PostSource interface {
	GetPost(ctx context.Context, postID string) (*postDomain.Post, error)
}

// Renderer delivers a post to the destination channel
type Renderer interface {
	RenderAndSend(ctx context.Context, p *postDomain.Post) (*forwardDomain.SendResult, error)
}

// Ledger records forwarded posts so watch mode skips them later
type Ledger interface {
	Record(postID string)
}

// Replier sends outcome notices back to the submitting chat
type Replier interface {
	Reply(ctx context.Context, chatID int64, text string) error
}

// Service is a bounded FIFO of operator submissions drained by a single
// consumer, so submissions are processed one at a time in arrival order.
type Service struct {
	queue    chan domain.Submission
	posts    PostSource
	renderer Renderer
	ledger   Ledger
	replier  Replier
	timeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// New creates a queue holding up to capacity pending submissions. Each
// submission is processed within timeout.
func New(capacity int, posts PostSource, renderer Renderer, ledger Ledger, timeout time.Duration) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	return &Service{
		queue:    make(chan domain.Submission, max(capacity, 1)),
		posts:    posts,
		renderer: renderer,
		ledger:   ledger,
		timeout:  timeout,
		ctx:      ctx,
		cancel:   cancel,
	}
}

// SetReplier sets where outcome notices go
func (s *Service) SetReplier(r Replier) {
	s.replier = r
}

// Submit extracts a post id from text and enqueues it for chatID.
// Text without a post URL yields ErrInvalidInput and leaves the queue untouched.
func (s *Service) Submit(chatID int64, text string) (*domain.Submission, error) {
	postID, err := ExtractPostID(text)
	if err != nil {
		return nil, err
	}

	sub := domain.Submission{
		ID:          uuid.NewString(),
		ChatID:      chatID,
		PostID:      postID,
		RequestedAt: time.Now(),
	}
	if err := s.Enqueue(sub); err != nil {
		return nil, err
	}
	return &sub, nil
}

// Enqueue adds sub without blocking. A full queue rejects with ErrQueueFull.
func (s *Service) Enqueue(sub domain.Submission) error {
	select {
	case s.queue <- sub:
		metrics.QueueDepth.Set(float64(len(s.queue)))
		slog.Info("Submission queued", "submission_id", sub.ID, "post_id", sub.PostID, "chat_id", sub.ChatID)
		return nil
	default:
		slog.Warn("Submission queue is full", "post_id", sub.PostID, "chat_id", sub.ChatID)
		return oops.With("capacity", cap(s.queue)).Wrap(errors.ErrQueueFull)
	}
}

// Dequeue blocks until a submission is available or ctx is done.
func (s *Service) Dequeue(ctx context.Context) (domain.Submission, error) {
	select {
	case <-ctx.Done():
		return domain.Submission{}, ctx.Err()
	case sub := <-s.queue:
		metrics.QueueDepth.Set(float64(len(s.queue)))
		return sub, nil
	}
}

// Len returns the number of pending submissions.
func (s *Service) Len() int {
	return len(s.queue)
}

// Capacity returns the queue bound.
func (s *Service) Capacity() int {
	return cap(s.queue)
}

// Start launches the consumer
func (s *Service) Start() {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.Run(s.ctx)
	}()
}

// Stop stops the consumer after the submission in progress
func (s *Service) Stop() {
	s.cancel()
	s.wg.Wait()
}

// Run drains the queue until ctx is done.
func (s *Service) Run(ctx context.Context) {
	for {
		sub, err := s.Dequeue(ctx)
		if err != nil {
			return
		}
		s.process(ctx, sub)
	}
}

func (s *Service) process(ctx context.Context, sub domain.Submission) {
	defer func() {
		if r := recover(); r != nil {
			slog.Error("Submission panic recovered", "submission_id", sub.ID, "post_id", sub.PostID, "panic", r)
			metrics.ForwardFailuresTotal.WithLabelValues(metrics.SourceManual, "panic").Inc()
			s.reply(ctx, sub.ChatID, fmt.Sprintf("❌ Failed to forward tweet %s.", sub.PostID))
		}
	}()

	// Work already dequeued finishes even when shutdown starts.
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
	defer cancel()

	log := slog.With("submission_id", sub.ID, "post_id", sub.PostID, "chat_id", sub.ChatID)

	post, err := s.posts.GetPost(ctx, sub.PostID)
	if err != nil {
		log.Error("Failed to fetch submitted post", "error", err)
		switch {
		case stderrors.Is(err, errors.ErrRateLimited):
			metrics.RateLimitedTotal.Inc()
			metrics.ForwardFailuresTotal.WithLabelValues(metrics.SourceManual, "rate_limited").Inc()
			s.reply(ctx, sub.ChatID, "⚠️ Twitter API rate limit hit! Try again later.")
		case stderrors.Is(err, errors.ErrPostNotFound):
			metrics.ForwardFailuresTotal.WithLabelValues(metrics.SourceManual, "not_found").Inc()
			s.reply(ctx, sub.ChatID, "⚠️ Tweet not found!")
		default:
			metrics.ForwardFailuresTotal.WithLabelValues(metrics.SourceManual, "source_error").Inc()
			s.reply(ctx, sub.ChatID, fmt.Sprintf("❌ Failed to fetch tweet %s.", sub.PostID))
		}
		return
	}

	result, err := s.renderer.RenderAndSend(ctx, post)
	s.ledger.Record(post.ID)
	if err != nil {
		log.Error("Failed to forward submitted post", "error", err)
		metrics.ForwardFailuresTotal.WithLabelValues(metrics.SourceManual, "delivery_failed").Inc()
		s.reply(ctx, sub.ChatID, fmt.Sprintf("❌ Failed to forward tweet %s.", sub.PostID))
		return
	}

	metrics.ForwardedTotal.WithLabelValues(metrics.SourceManual).Inc()
	log.Info("Submitted post forwarded", "kind", result.Kind, "media_failed", result.MediaFailed)

	text := fmt.Sprintf("✅ Tweet %s forwarded to the channel.", sub.PostID)
	if result.MediaFailed > 0 {
		text += fmt.Sprintf(" %d attachment(s) could not be downloaded.", result.MediaFailed)
	}
	s.reply(ctx, sub.ChatID, text)
}

func (s *Service) reply(ctx context.Context, chatID int64, text string) {
	if s.replier == nil {
		return
	}
	if err := s.replier.Reply(ctx, chatID, text); err != nil {
		slog.Error("Failed to reply to operator", "chat_id", chatID, "error", err)
	}
}
