package register

import (
	"errors"
	"time"

	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrRegisterNotOpen        = errors.New("today's register is not open")
	ErrRegisterAlreadyClosed  = errors.New("today's register is already closed")
	ErrNegativeOpeningBalance = errors.New("opening balance cannot be negative")
)

// Register is the daily report that gates whether movements may be written.
// Exactly one exists per business day.
type Register struct {
	ID             uuid.UUID             `json:"id"`
	Date           time.Time             `json:"date"`
	OpeningBalance decimal.Decimal       `json:"opening_balance"`
	FinalBalance   decimal.NullDecimal   `json:"final_balance"`
	Status         shared.RegisterStatus `json:"status"`
	OpenedBy       string                `json:"opened_by"`
	ClosedBy       string                `json:"closed_by,omitempty"`
	ClosedAt       *time.Time            `json:"closed_at,omitempty"`
	CreatedAt      time.Time             `json:"created_at"`
	UpdatedAt      time.Time             `json:"updated_at"`
}

// NewRegister creates an OPEN register for the given business day
func NewRegister(day time.Time, openingBalance decimal.Decimal, openedBy string, now time.Time) (*Register, error) {
	if openingBalance.IsNegative() {
		return nil, ErrNegativeOpeningBalance
	}
	return &Register{
		ID:             uuid.New(),
		Date:           day,
		OpeningBalance: openingBalance,
		Status:         shared.RegisterStatusOpen,
		OpenedBy:       openedBy,
		CreatedAt:      now,
		UpdatedAt:      now,
	}, nil
}

func (r *Register) IsOpen() bool {
	return r.Status == shared.RegisterStatusOpen
}

// Close locks the register against further movement writes
func (r *Register) Close(finalBalance decimal.Decimal, closedBy string, now time.Time) error {
	if !r.IsOpen() {
		return ErrRegisterAlreadyClosed
	}
	r.Status = shared.RegisterStatusClosed
	r.FinalBalance = decimal.NullDecimal{Decimal: finalBalance, Valid: true}
	r.ClosedBy = closedBy
	r.ClosedAt = &now
	r.UpdatedAt = now
	return nil
}
