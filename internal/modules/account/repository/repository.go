package repository

import (
	"github.com/reshetovitsme/x-telegram-relay/internal/modules/account/domain"
)

// Repository persists the resolved account identity between runs
type Repository interface {
	// GetAccount returns the cached account for handle, or ErrAccountNotCached.
	GetAccount(handle string) (*domain.Account, error)
	SaveAccount(account *domain.Account) error
}
