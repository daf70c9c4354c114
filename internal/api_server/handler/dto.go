package handler

import (
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// StartDayRequest represents a request to open today's register
type StartDayRequest struct {
	OpeningBalance *decimal.Decimal `json:"opening_balance" binding:"required"`
}

// CreateCompanyRequest represents a request to register a partner company
type CreateCompanyRequest struct {
	Name        string             `json:"name" binding:"required"`
	PriceUnit   *decimal.Decimal   `json:"price_unit" binding:"required"`
	BillingType shared.BillingType `json:"billing_type,omitempty"`
}

// SetCompanyStatusRequest toggles whether a company accepts new agreement movements
type SetCompanyStatusRequest struct {
	Active *bool `json:"active" binding:"required"`
}

// UpdateCompanyPriceRequest changes the meal price of a company
type UpdateCompanyPriceRequest struct {
	PriceUnit *decimal.Decimal `json:"price_unit" binding:"required"`
}

// CreateMovementRequest represents a request to record a register movement
type CreateMovementRequest struct {
	Type         shared.MovementType `json:"type" binding:"required"`
	CompanyID    *uuid.UUID          `json:"company_id,omitempty"`
	ItemCategory shared.ItemCategory `json:"item_category,omitempty"`
	Consumer     string              `json:"consumer,omitempty"`
	Description  string              `json:"description,omitempty"`
	Quantity     *int                `json:"quantity,omitempty"`
	Amount       decimal.Decimal     `json:"amount"`
}

// PerformClosingRequest represents a request to settle a company's open agreements
type PerformClosingRequest struct {
	CompanyID string `json:"company_id" binding:"required,uuid"`
	EndDate   string `json:"end_date" binding:"required"`
}

// DateRangeParams are the query parameters of period listings
type DateRangeParams struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	CompanyID string `form:"company_id" binding:"omitempty,uuid"`
}

// AuditParams are the query parameters of the audit trail listing
type AuditParams struct {
	UserID    string `form:"user_id"`
	Entity    string `form:"entity"`
	EntityID  string `form:"entity_id"`
	Action    string `form:"action"`
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
	Limit     int    `form:"limit" binding:"min=0"`
}

// EventParams are the query parameters of the event listing
type EventParams struct {
	Limit int `form:"limit" binding:"min=0,max=100"`
}

// optionalUUID parses a validated, possibly empty, uuid parameter
func optionalUUID(value string) *uuid.UUID {
	if value == "" {
		return nil
	}
	id, err := uuid.Parse(value)
	if err != nil {
		return nil
	}
	return &id
}
