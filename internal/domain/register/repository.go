package register

import (
	"context"
	"time"
)

// LockMode selects the row lock taken when reading a register inside a transaction
type LockMode int

const (
	// LockShare blocks a concurrent close while movements are being written
	LockShare LockMode = iota
	// LockUpdate serializes closing the register
	LockUpdate
)

// Repository defines register persistence operations. Dates are business-local midnights.
type Repository interface {
	// CreateIfAbsent inserts the register unless one already exists for its date and
	// returns the stored row either way. created is false when another caller won.
	CreateIfAbsent(ctx context.Context, register *Register) (stored *Register, created bool, err error)
	GetByDate(ctx context.Context, day time.Time) (*Register, error)
	LockByDate(ctx context.Context, day time.Time, mode LockMode) (*Register, error)
	Update(ctx context.Context, register *Register) error
}

// ErrRegisterNotFound indicates no register exists for the day
type ErrRegisterNotFound struct {
	Date time.Time
}

func (e ErrRegisterNotFound) Error() string {
	return "register not found for date: " + e.Date.Format("2006-01-02")
}

// Is implements the errors.Is interface for ErrRegisterNotFound
func (e ErrRegisterNotFound) Is(target error) bool {
	t, ok := target.(ErrRegisterNotFound)
	if !ok {
		return false
	}
	if t.Date.IsZero() {
		return true
	}
	return e.Date.Equal(t.Date)
}
