package components

import (
	"context"
	"log/slog"

	"github.com/cash-register-ledger/internal/domain/company"
	"github.com/cash-register-ledger/internal/domain/movement"
	"github.com/cash-register-ledger/internal/ledger/service"
)

type MovementPricerImpl struct {
	logger *slog.Logger
}

func NewMovementPricer(logger *slog.Logger) service.MovementPricer {
	return &MovementPricerImpl{logger: logger}
}

// Price resolves the agreement's company inside the caller's unit of work and applies
// its billing policy. MEAL lines take the company's current unit price.
func (p *MovementPricerImpl) Price(ctx context.Context, companies company.Repository, m *movement.Movement) error {
	if m.CompanyID == nil {
		return movement.ErrMissingCompany
	}

	c, err := companies.GetByID(ctx, *m.CompanyID)
	if err != nil {
		return err
	}

	if err := m.ApplyCompany(c); err != nil {
		p.logger.Warn("Agreement movement rejected",
			"company_id", c.ID.String(),
			"item_category", string(m.ItemCategory),
			"error", err,
		)
		return err
	}

	if m.IsMeal() {
		p.logger.Debug("Meal priced from company",
			"company_id", c.ID.String(),
			"unit_value", m.UnitValue.Decimal.String(),
			"quantity", m.Quantity,
		)
	}
	return nil
}
