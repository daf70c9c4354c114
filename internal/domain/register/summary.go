package register

import (
	"github.com/cash-register-ledger/internal/domain/movement"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// TypeTotal is the count and sum of one movement type
type TypeTotal struct {
	Count  int             `json:"count"`
	Amount decimal.Decimal `json:"amount"`
}

// DaySummary is the end-of-day position of a register.
// Total = opening + agreements + counter - expenses. Delivery income is reported
// but excluded because the platform settles it outside the drawer.
type DaySummary struct {
	RegisterID     uuid.UUID                          `json:"register_id"`
	Date           string                             `json:"date"`
	Status         shared.RegisterStatus              `json:"status"`
	OpeningBalance decimal.Decimal                    `json:"opening_balance"`
	CounterTotal   decimal.Decimal                    `json:"counter_total"`
	DeliveryTotal  decimal.Decimal                    `json:"delivery_total"`
	AgreementTotal decimal.Decimal                    `json:"agreement_total"`
	ExpenseTotal   decimal.Decimal                    `json:"expense_total"`
	Total          decimal.Decimal                    `json:"total"`
	MovementCount  int                                `json:"movement_count"`
	ByType         map[shared.MovementType]*TypeTotal `json:"by_type"`
}

// Summarize computes the day summary of r from its movements
func Summarize(r *Register, day string, movements []*movement.Movement) *DaySummary {
	s := &DaySummary{
		RegisterID:     r.ID,
		Date:           day,
		Status:         r.Status,
		OpeningBalance: r.OpeningBalance,
		CounterTotal:   decimal.Zero,
		DeliveryTotal:  decimal.Zero,
		AgreementTotal: decimal.Zero,
		ExpenseTotal:   decimal.Zero,
		ByType:         make(map[shared.MovementType]*TypeTotal, len(shared.MovementTypes)),
	}
	for _, t := range shared.MovementTypes {
		s.ByType[t] = &TypeTotal{Amount: decimal.Zero}
	}

	for _, m := range movements {
		s.MovementCount++
		if tt, ok := s.ByType[m.Type]; ok {
			tt.Count++
			tt.Amount = tt.Amount.Add(m.Amount)
		}
		switch {
		case m.Type.IsCounter():
			s.CounterTotal = s.CounterTotal.Add(m.Amount)
		case m.Type == shared.MovementTypeIncomeIfood:
			s.DeliveryTotal = s.DeliveryTotal.Add(m.Amount)
		case m.Type.IsAgreement():
			s.AgreementTotal = s.AgreementTotal.Add(m.Amount)
		case m.Type == shared.MovementTypeExpense:
			s.ExpenseTotal = s.ExpenseTotal.Add(m.Amount)
		}
	}

	s.Total = s.OpeningBalance.Add(s.AgreementTotal).Add(s.CounterTotal).Sub(s.ExpenseTotal)
	return s
}
