package company

import (
	"errors"
	"strings"
	"time"

	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrEmptyName        = errors.New("company name cannot be empty")
	ErrInvalidPriceUnit = errors.New("price unit must be greater than zero")
	ErrInvalidBilling   = errors.New("billing type must be GROUP or INDIVIDUAL")
)

// Company is a partner billed for agreement meals
type Company struct {
	ID          uuid.UUID          `json:"id"`
	Name        string             `json:"name"`
	PriceUnit   decimal.Decimal    `json:"price_unit"`
	BillingType shared.BillingType `json:"billing_type"`
	Active      bool               `json:"active"`
	CreatedAt   time.Time          `json:"created_at"`
	UpdatedAt   time.Time          `json:"updated_at"`
}

// NewCompany creates an active company. An empty billing type defaults to GROUP.
func NewCompany(name string, priceUnit decimal.Decimal, billing shared.BillingType, now time.Time) (*Company, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, ErrEmptyName
	}
	if !priceUnit.IsPositive() {
		return nil, ErrInvalidPriceUnit
	}
	if billing == "" {
		billing = shared.BillingTypeGroup
	}
	if !billing.IsValid() {
		return nil, ErrInvalidBilling
	}

	return &Company{
		ID:          uuid.New(),
		Name:        name,
		PriceUnit:   priceUnit,
		BillingType: billing,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// ChangePrice sets a new unit price. Movements already priced keep their snapshot.
func (c *Company) ChangePrice(priceUnit decimal.Decimal, now time.Time) error {
	if !priceUnit.IsPositive() {
		return ErrInvalidPriceUnit
	}
	c.PriceUnit = priceUnit
	c.UpdatedAt = now
	return nil
}

// SetActive toggles whether new agreement movements may reference the company
func (c *Company) SetActive(active bool, now time.Time) {
	c.Active = active
	c.UpdatedAt = now
}

// RequiresConsumer reports whether each agreement line must name its consumer
func (c *Company) RequiresConsumer() bool {
	return c.BillingType == shared.BillingTypeIndividual
}
