package service

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/reshetovitsme/x-telegram-relay/internal/modules/account/domain"
	"github.com/reshetovitsme/x-telegram-relay/internal/modules/account/repository"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/errors"
	"github.com/samber/oops"
)

// Lookup resolves a handle against the source API
type Lookup interface {
	LookupAccount(ctx context.Context, handle string) (string, error)
}

// Service resolves the monitored handle to its account id, caching the
// result on disk so restarts skip the lookup.
type Service struct {
	repo        repository.Repository
	lookup      Lookup
	maxAttempts int
	baseDelay   time.Duration

	sleep func(ctx context.Context, d time.Duration) error
	now   func() time.Time
}

// New creates a resolver retrying up to maxAttempts times with
// exponential backoff starting at baseDelay
func New(repo repository.Repository, lookup Lookup, maxAttempts int, baseDelay time.Duration) *Service {
	return &Service{
		repo:        repo,
		lookup:      lookup,
		maxAttempts: max(maxAttempts, 1),
		baseDelay:   baseDelay,
		sleep:       sleepContext,
		now:         time.Now,
	}
}

// Resolve returns the account id of handle. Exhausted retries yield
// ErrResolutionFailed; the watch loop must not start without an id.
func (s *Service) Resolve(ctx context.Context, handle string) (string, error) {
	if account, err := s.repo.GetAccount(handle); err == nil {
		slog.Debug("Account resolved from cache", "handle", handle, "account_id", account.ID)
		return account.ID, nil
	}

	var lastErr error
	for attempt := 0; attempt < s.maxAttempts; attempt++ {
		id, err := s.lookup.LookupAccount(ctx, handle)
		if err == nil {
			account := &domain.Account{Handle: handle, ID: id, ResolvedAt: s.now()}
			if err := s.repo.SaveAccount(account); err != nil {
				slog.Error("Failed to save account cache", "handle", handle, "error", err)
			}
			slog.Info("Account resolved", "handle", handle, "account_id", id, "attempt", attempt+1)
			return id, nil
		}
		lastErr = err

		if attempt == s.maxAttempts-1 {
			break
		}

		delay := s.baseDelay * time.Duration(1<<attempt)
		slog.Warn("Account lookup failed, retrying", "handle", handle, "attempt", attempt+1, "delay", delay, "error", err)
		if err := s.sleep(ctx, delay); err != nil {
			lastErr = err
			break
		}
	}

	return "", oops.
		In("account").
		Code("resolution_failed").
		With("handle", handle, "max_attempts", s.maxAttempts).
		Wrap(fmt.Errorf("%w: %w", errors.ErrResolutionFailed, lastErr))
}

func sleepContext(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
