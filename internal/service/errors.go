package service

import (
	"errors"

	"sdkadmin/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Sentinel errors mapped to HTTP statuses by the handler layer.
var (
	ErrNotFound         = errors.New("not found")
	ErrAlreadySubmitted = errors.New("a cash-up for this employee and date already exists")
	ErrAlreadyResolved  = errors.New("cash-up is already resolved")
	ErrNotesRequired    = errors.New("resolution notes are required for a Short or Over cash-up")
	ErrInvalidBatch     = errors.New("batch_id is required")
	ErrInvalidAmount    = errors.New("amount must not be negative")
	ErrInvalidDate      = errors.New("date must be formatted YYYY-MM-DD")
	ErrResolverBusy     = errors.New("policy resolver is already running")
)

// notFound maps gorm's missing-row error onto ErrNotFound and passes anything
// else through unchanged.
func notFound(err error) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrNotFound
	}
	return err
}

// Actor is the authenticated caller, taken from the bearer token claims.
type Actor struct {
	ID   uuid.UUID
	Name string
	Role string
}

// CanReview reports whether the caller may act on other employees' cash-ups.
func (a Actor) CanReview() bool {
	return a.Role == model.RoleReviewer || a.Role == model.RoleAdmin
}
