package movement

import (
	"errors"
	"strings"
	"time"

	"github.com/cash-register-ledger/internal/domain/company"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrInvalidAmount           = errors.New("amount must be greater than zero")
	ErrMissingCompany          = errors.New("agreement movements require a company")
	ErrConsumerRequired        = errors.New("consumer is required for individually billed companies")
	ErrCrossDayDeleteForbidden = errors.New("movements from other days cannot be deleted")
	ErrMovementSettled         = errors.New("movement already belongs to a closing")
)

// Movement is a single financial entry recorded against a register
type Movement struct {
	ID           uuid.UUID           `json:"id"`
	ReportID     uuid.UUID           `json:"report_id"`
	Type         shared.MovementType `json:"type"`
	CompanyID    *uuid.UUID          `json:"company_id,omitempty"`
	CompanyName  string              `json:"company_name,omitempty"`
	ItemCategory shared.ItemCategory `json:"item_category,omitempty"`
	Consumer     string              `json:"consumer,omitempty"`
	Description  string              `json:"description,omitempty"`
	Quantity     int                 `json:"quantity"`
	Amount       decimal.Decimal     `json:"amount"`
	UnitValue    decimal.NullDecimal `json:"unit_value"`
	ClosingID    *uuid.UUID          `json:"closing_id,omitempty"`
	UserID       string              `json:"user_id"`
	CreatedAt    time.Time           `json:"created_at"`
}

// Draft is the caller-supplied part of a movement before server-side pricing
type Draft struct {
	Type         shared.MovementType
	CompanyID    *uuid.UUID
	ItemCategory shared.ItemCategory
	Consumer     string
	Description  string
	Quantity     int // at least 1, checked by the caller
	Amount       decimal.Decimal
}

// New builds an unpriced movement owned by reportID. Agreement-only fields are
// dropped for counter, delivery and expense entries.
func New(reportID uuid.UUID, d Draft, userID string, now time.Time) *Movement {
	m := &Movement{
		ID:          uuid.New(),
		ReportID:    reportID,
		Type:        d.Type,
		Consumer:    strings.TrimSpace(d.Consumer),
		Description: strings.TrimSpace(d.Description),
		Quantity:    d.Quantity,
		Amount:      d.Amount,
		UserID:      userID,
		CreatedAt:   now,
	}
	if d.Type.IsAgreement() {
		m.CompanyID = d.CompanyID
		m.ItemCategory = d.ItemCategory
	}
	return m
}

// CheckAmount rejects non-positive amounts for every line whose amount is not
// computed by the server.
func (m *Movement) CheckAmount() error {
	if m.IsMeal() {
		return nil
	}
	if !m.Amount.IsPositive() {
		return ErrInvalidAmount
	}
	return nil
}

// ApplyCompany validates the agreement against the company's billing policy and
// snapshots the company's unit price for MEAL lines. The caller's amount for a MEAL
// line is discarded.
func (m *Movement) ApplyCompany(c *company.Company) error {
	if !c.Active {
		return company.ErrCompanyInactive{CompanyID: c.ID}
	}
	m.CompanyName = c.Name
	if m.IsMeal() {
		m.UnitValue = decimal.NullDecimal{Decimal: c.PriceUnit, Valid: true}
		m.Amount = c.PriceUnit.Mul(decimal.NewFromInt(int64(m.Quantity)))
	}
	if c.RequiresConsumer() && m.Consumer == "" {
		return ErrConsumerRequired
	}
	return nil
}

func (m *Movement) IsMeal() bool {
	return m.Type.IsAgreement() && m.ItemCategory == shared.ItemCategoryMeal
}

func (m *Movement) IsSettled() bool {
	return m.ClosingID != nil
}

// BelongsTo reports whether the movement was written against the given register
func (m *Movement) BelongsTo(reportID uuid.UUID) bool {
	return m.ReportID == reportID
}
