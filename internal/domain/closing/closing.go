package closing

import (
	"errors"
	"sort"
	"time"

	"github.com/cash-register-ledger/internal/domain/movement"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var (
	ErrNothingToClose       = errors.New("no open agreement movements to close")
	ErrSettlementInProgress = errors.New("another settlement for this company is in progress")
)

// Closing is an immutable settlement of a company's agreement movements
type Closing struct {
	ID            uuid.UUID       `json:"id"`
	CompanyID     uuid.UUID       `json:"company_id"`
	TotalAmount   decimal.Decimal `json:"total_amount"`
	StartDate     time.Time       `json:"start_date"`
	EndDate       time.Time       `json:"end_date"`
	MovementCount int             `json:"movement_count"`
	CreatedBy     string          `json:"created_by"`
	CreatedAt     time.Time       `json:"created_at"`
}

// NewClosing sums the selected movements exactly and records the earliest one as the
// start of the settled period.
func NewClosing(companyID uuid.UUID, cutoff time.Time, movements []*movement.Movement, createdBy string, now time.Time) (*Closing, error) {
	if len(movements) == 0 {
		return nil, ErrNothingToClose
	}

	total := decimal.Zero
	start := movements[0].CreatedAt
	for _, m := range movements {
		total = total.Add(m.Amount)
		if m.CreatedAt.Before(start) {
			start = m.CreatedAt
		}
	}

	return &Closing{
		ID:            uuid.New(),
		CompanyID:     companyID,
		TotalAmount:   total,
		StartDate:     start,
		EndDate:       cutoff,
		MovementCount: len(movements),
		CreatedBy:     createdBy,
		CreatedAt:     now,
	}, nil
}

// MovementIDs returns the ids of the given movements in order
func MovementIDs(movements []*movement.Movement) []uuid.UUID {
	ids := make([]uuid.UUID, 0, len(movements))
	for _, m := range movements {
		ids = append(ids, m.ID)
	}
	return ids
}

// CompanyTotal aggregates a company's agreement movements
type CompanyTotal struct {
	CompanyID     uuid.UUID          `json:"company_id"`
	CompanyName   string             `json:"company_name"`
	BillingType   shared.BillingType `json:"billing_type"`
	MovementCount int                `json:"movement_count"`
	TotalAmount   decimal.Decimal    `json:"total_amount"`
	TotalQuantity int                `json:"total_quantity"`
	EarliestAt    time.Time          `json:"earliest_at"`
}

// TotalsFilter selects the agreement movements aggregated per company.
// To is exclusive. OpenOnly restricts the aggregation to unsettled movements.
type TotalsFilter struct {
	From      *time.Time
	To        time.Time
	CompanyID *uuid.UUID
	OpenOnly  bool
}

// Aggregate groups agreement movements by company. Movements without a company are
// skipped. Groups are ordered by their earliest movement.
func Aggregate(movements []*movement.Movement) []*CompanyTotal {
	byCompany := make(map[uuid.UUID]*CompanyTotal)
	var order []uuid.UUID
	for _, m := range movements {
		if !m.Type.IsAgreement() || m.CompanyID == nil {
			continue
		}
		total, ok := byCompany[*m.CompanyID]
		if !ok {
			total = &CompanyTotal{CompanyID: *m.CompanyID, TotalAmount: decimal.Zero, EarliestAt: m.CreatedAt}
			byCompany[*m.CompanyID] = total
			order = append(order, *m.CompanyID)
		}
		total.MovementCount++
		total.TotalAmount = total.TotalAmount.Add(m.Amount)
		total.TotalQuantity += m.Quantity
		if m.CreatedAt.Before(total.EarliestAt) {
			total.EarliestAt = m.CreatedAt
		}
	}

	totals := make([]*CompanyTotal, 0, len(order))
	for _, id := range order {
		totals = append(totals, byCompany[id])
	}
	SortTotals(totals)
	return totals
}

// SortTotals orders groups by earliest movement, then company id
func SortTotals(totals []*CompanyTotal) {
	sort.Slice(totals, func(i, j int) bool {
		if !totals[i].EarliestAt.Equal(totals[j].EarliestAt) {
			return totals[i].EarliestAt.Before(totals[j].EarliestAt)
		}
		return totals[i].CompanyID.String() < totals[j].CompanyID.String()
	})
}
