package service

import (
	"sync"
	"time"

	"github.com/reshetovitsme/x-telegram-relay/internal/modules/operator/domain"
	"github.com/reshetovitsme/x-telegram-relay/internal/modules/operator/repository"
	"github.com/reshetovitsme/x-telegram-relay/internal/shared/errors"
	"github.com/samber/lo"
	"github.com/samber/oops"
)

// Service decides who may operate the relay. With allowed users configured
// only they are accepted; otherwise the first user to /start becomes the
// admin and later users must be registered.
type Service struct {
	repo         repository.Repository
	allowedUsers []int64
	// mu serializes registrations.
	mu sync.Mutex
}

// New creates a new operator service
func New(repo repository.Repository, allowedUsers []int64) *Service {
	return &Service{
		repo:         repo,
		allowedUsers: allowedUsers,
	}
}

// IsAuthorized checks if a user may operate the relay
func (s *Service) IsAuthorized(userID int64) bool {
	if len(s.allowedUsers) > 0 {
		return lo.Contains(s.allowedUsers, userID)
	}

	_, err := s.repo.GetOperator(userID)
	return err == nil
}

// Register records userID as an operator. It returns ErrUnauthorized when
// the user is neither allowed nor the first to register.
func (s *Service) Register(userID int64, username string) (*domain.Operator, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if existing, err := s.repo.GetOperator(userID); err == nil {
		return existing, nil
	}

	operator := &domain.Operator{
		ID:       userID,
		Username: username,
		AddedAt:  time.Now(),
	}

	if len(s.allowedUsers) == 0 {
		claimed, err := s.repo.ClaimAdmin(operator)
		if err != nil {
			return nil, oops.With("user_id", userID, "context", "failed to claim admin").Wrap(err)
		}
		if !claimed {
			return nil, errors.ErrUnauthorized
		}
		return operator, nil
	}

	if !lo.Contains(s.allowedUsers, userID) {
		return nil, errors.ErrUnauthorized
	}
	if err := s.repo.SaveOperator(operator); err != nil {
		return nil, oops.With("user_id", userID, "context", "failed to save operator").Wrap(err)
	}
	return operator, nil
}

// GetAllOperators lists registered operators
func (s *Service) GetAllOperators() ([]*domain.Operator, error) {
	return s.repo.GetAllOperators()
}

// Admin returns the operator who claimed admin, if any
func (s *Service) Admin() (*domain.Operator, error) {
	return s.repo.GetAdmin()
}
