package repository

import (
	"errors"

	"github.com/reshetovitsme/x-telegram-relay/internal/modules/operator/domain"
)

// ErrOperatorNotFound is returned when no matching operator is registered
var ErrOperatorNotFound = errors.New("operator not found")

// Repository defines the interface for operator persistence
type Repository interface {
	SaveOperator(operator *domain.Operator) error
	GetOperator(userID int64) (*domain.Operator, error)
	GetAllOperators() ([]*domain.Operator, error)
	// GetAdmin returns the admin operator or ErrOperatorNotFound.
	GetAdmin() (*domain.Operator, error)
	// ClaimAdmin saves operator as admin unless an admin already exists.
	ClaimAdmin(operator *domain.Operator) (bool, error)
}
