package closing

import (
	"context"

	"github.com/google/uuid"
)

// Repository defines closing persistence and agreement aggregation
type Repository interface {
	Create(ctx context.Context, closing *Closing) error
	GetByID(ctx context.Context, id uuid.UUID) (*Closing, error)
	// List returns closings newest first, optionally for one company
	List(ctx context.Context, companyID *uuid.UUID) ([]*Closing, error)
	// AgreementTotals groups agreement movements by company. Name and billing type
	// are left for the caller to fill in.
	AgreementTotals(ctx context.Context, filter TotalsFilter) ([]*CompanyTotal, error)
}

// ErrClosingNotFound indicates missing closing
type ErrClosingNotFound struct {
	ClosingID uuid.UUID
}

func (e ErrClosingNotFound) Error() string {
	return "closing not found: " + e.ClosingID.String()
}

// Is implements the errors.Is interface for ErrClosingNotFound
func (e ErrClosingNotFound) Is(target error) bool {
	t, ok := target.(ErrClosingNotFound)
	if !ok {
		return false
	}
	if t.ClosingID == uuid.Nil {
		return true
	}
	return e.ClosingID == t.ClosingID
}

// ErrConcurrentSettlement indicates some selected movements were settled by another
// closing between selection and stamping
type ErrConcurrentSettlement struct {
	CompanyID uuid.UUID
	Expected  int64
	Stamped   int64
}

func (e ErrConcurrentSettlement) Error() string {
	return "concurrent settlement detected for company: " + e.CompanyID.String()
}

// Is implements the errors.Is interface for ErrConcurrentSettlement
func (e ErrConcurrentSettlement) Is(target error) bool {
	t, ok := target.(ErrConcurrentSettlement)
	if !ok {
		return false
	}
	if t.CompanyID == uuid.Nil {
		return true
	}
	return e.CompanyID == t.CompanyID
}
