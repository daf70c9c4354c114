package movement

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// PeriodFilter selects movements whose createdAt lies in [From, To)
type PeriodFilter struct {
	From      time.Time
	To        time.Time
	CompanyID *uuid.UUID
}

// Repository defines movement persistence operations. Every list is newest first
// unless stated otherwise, with the company name joined in.
type Repository interface {
	Create(ctx context.Context, movement *Movement) error
	GetByID(ctx context.Context, id uuid.UUID) (*Movement, error)
	LockForUpdate(ctx context.Context, id uuid.UUID) (*Movement, error)

	// Delete removes an unsettled movement. Settled movements are never deleted.
	Delete(ctx context.Context, id uuid.UUID) error

	// ListByReport returns the register's movements. limit <= 0 returns all of them.
	ListByReport(ctx context.Context, reportID uuid.UUID, limit int) ([]*Movement, error)
	ListByPeriod(ctx context.Context, filter PeriodFilter) ([]*Movement, error)

	// ListOpenAgreements returns unsettled agreement movements of a company, oldest
	// first, created strictly before cutoff. A nil cutoff means no upper bound. forUpdate locks the returned rows.
	ListOpenAgreements(ctx context.Context, companyID uuid.UUID, cutoff *time.Time, forUpdate bool) ([]*Movement, error)

	// MarkSettled stamps closingID on the given movements that are still unsettled
	// and returns how many were stamped.
	MarkSettled(ctx context.Context, closingID uuid.UUID, ids []uuid.UUID) (int64, error)
}

// ErrMovementNotFound indicates missing movement
type ErrMovementNotFound struct {
	MovementID uuid.UUID
}

func (e ErrMovementNotFound) Error() string {
	return "movement not found: " + e.MovementID.String()
}

// Is implements the errors.Is interface for ErrMovementNotFound
func (e ErrMovementNotFound) Is(target error) bool {
	t, ok := target.(ErrMovementNotFound)
	if !ok {
		return false
	}
	if t.MovementID == uuid.Nil {
		return true
	}
	return e.MovementID == t.MovementID
}
