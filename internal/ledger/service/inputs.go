package service

import (
	"strings"

	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/cash-register-ledger/internal/platform/validation"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StartDayInput opens today's register
type StartDayInput struct {
	OpeningBalance decimal.Decimal `json:"opening_balance"`
}

func (in StartDayInput) Validate() error {
	var c validation.Collector
	if in.OpeningBalance.IsNegative() {
		c.Add("opening_balance", "gte", "must not be negative")
	}
	return c.Err()
}

// CreateCompanyInput registers a partner company. An empty billing type means GROUP.
type CreateCompanyInput struct {
	Name        string             `json:"name" validate:"max=255"`
	PriceUnit   decimal.Decimal    `json:"price_unit"`
	BillingType shared.BillingType `json:"billing_type" validate:"omitempty,oneof=GROUP INDIVIDUAL"`
}

func (in CreateCompanyInput) Validate() error {
	var c validation.Collector
	if err := c.Merge(in); err != nil {
		return err
	}
	if strings.TrimSpace(in.Name) == "" {
		c.Add("name", "required", "is required")
	}
	if !in.PriceUnit.IsPositive() {
		c.Add("price_unit", "gt", "must be greater than 0")
	}
	return c.Err()
}

type SetActiveInput struct {
	Active *bool `json:"active" validate:"required"`
}

func (in SetActiveInput) Validate() error {
	return validation.Struct(in)
}

type UpdatePriceInput struct {
	PriceUnit decimal.Decimal `json:"price_unit"`
}

func (in UpdatePriceInput) Validate() error {
	var c validation.Collector
	if !in.PriceUnit.IsPositive() {
		c.Add("price_unit", "gt", "must be greater than 0")
	}
	return c.Err()
}

// CreateMovementInput is a movement as submitted by the operator. Amount is advisory
// for MEAL agreement lines. An omitted quantity means 1.
type CreateMovementInput struct {
	Type         shared.MovementType `json:"type"`
	CompanyID    *uuid.UUID          `json:"company_id"`
	ItemCategory shared.ItemCategory `json:"item_category" validate:"omitempty,oneof=MEAL EXTRA"`
	Consumer     string              `json:"consumer" validate:"max=255"`
	Description  string              `json:"description" validate:"max=1000"`
	Quantity     *int                `json:"quantity" validate:"omitempty,min=1,max=10000"`
	Amount       decimal.Decimal     `json:"amount"`
}

func (in CreateMovementInput) Validate() error {
	var c validation.Collector
	if err := c.Merge(in); err != nil {
		return err
	}
	if !in.Type.IsValid() {
		c.Add("type", "oneof", "must be a known movement type")
	}
	if in.CompanyID != nil && *in.CompanyID == uuid.Nil {
		c.Add("company_id", "uuid", "must be a valid UUID")
	}
	return c.Err()
}

func (in CreateMovementInput) quantity() int {
	if in.Quantity == nil {
		return 1
	}
	return *in.Quantity
}

// HistoryQuery selects movements between two inclusive local calendar days
type HistoryQuery struct {
	StartDate string     `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string     `json:"end_date" validate:"required,datetime=2006-01-02"`
	CompanyID *uuid.UUID `json:"company_id"`
}

func (q HistoryQuery) Validate() error {
	return validation.Struct(q)
}

// OpenTotalsQuery aggregates unsettled agreements up to the end of EndDate, or of
// today when EndDate is empty
type OpenTotalsQuery struct {
	EndDate   string     `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	CompanyID *uuid.UUID `json:"company_id"`
}

func (q OpenTotalsQuery) Validate() error {
	return validation.Struct(q)
}

// GroupedTotalsQuery aggregates every agreement between two inclusive days
type GroupedTotalsQuery struct {
	StartDate string     `json:"start_date" validate:"required,datetime=2006-01-02"`
	EndDate   string     `json:"end_date" validate:"required,datetime=2006-01-02"`
	CompanyID *uuid.UUID `json:"company_id"`
}

func (q GroupedTotalsQuery) Validate() error {
	return validation.Struct(q)
}

// PerformClosingInput settles a company's open agreements up to the end of EndDate
type PerformClosingInput struct {
	CompanyID uuid.UUID `json:"company_id"`
	EndDate   string    `json:"end_date" validate:"required,datetime=2006-01-02"`
}

func (in PerformClosingInput) Validate() error {
	var c validation.Collector
	if in.CompanyID == uuid.Nil {
		c.Add("company_id", "required", "is required")
	}
	if err := c.Merge(in); err != nil {
		return err
	}
	return c.Err()
}

// AuditQuery filters the audit trail. Limit 0 uses the configured default.
type AuditQuery struct {
	UserID    string             `json:"user_id" validate:"max=255"`
	Entity    string             `json:"entity" validate:"omitempty,oneof=Company DailyReport Movement Closing"`
	EntityID  string             `json:"entity_id" validate:"max=255"`
	Action    shared.AuditAction `json:"action" validate:"omitempty,oneof=CREATE UPDATE DELETE OPEN CLOSE"`
	StartDate string             `json:"start_date" validate:"omitempty,datetime=2006-01-02"`
	EndDate   string             `json:"end_date" validate:"omitempty,datetime=2006-01-02"`
	Limit     int                `json:"limit" validate:"min=0"`
}

func (q AuditQuery) Validate() error {
	return validation.Struct(q)
}
