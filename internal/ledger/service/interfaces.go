package service

import (
	"context"

	"github.com/cash-register-ledger/internal/domain/audit"
	"github.com/cash-register-ledger/internal/domain/closing"
	"github.com/cash-register-ledger/internal/domain/company"
	"github.com/cash-register-ledger/internal/domain/event"
	"github.com/cash-register-ledger/internal/domain/movement"
	"github.com/cash-register-ledger/internal/domain/outbox"
	"github.com/cash-register-ledger/internal/domain/register"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// RegisterService manages the daily register
type RegisterService interface {
	// GetToday returns today's register, if any, with its most recent movements
	GetToday(ctx context.Context) (*TodayView, error)

	// StartDay opens today's register. Repeated and concurrent calls return the same
	// register; created reports whether this call opened it.
	StartDay(ctx context.Context, input StartDayInput) (reg *register.Register, created bool, err error)

	// CloseDay closes today's register with the computed final balance
	CloseDay(ctx context.Context) (*register.DaySummary, error)

	// GetDaySummary totals the register of the given day (YYYY-MM-DD, empty for today)
	GetDaySummary(ctx context.Context, date string) (*register.DaySummary, error)
}

// CompanyService maintains the company directory
type CompanyService interface {
	CreateCompany(ctx context.Context, input CreateCompanyInput) (*company.Company, error)
	GetCompany(ctx context.Context, id uuid.UUID) (*company.Company, error)
	ListActiveCompanies(ctx context.Context) ([]*company.Company, error)
	SetCompanyActive(ctx context.Context, id uuid.UUID, input SetActiveInput) (*company.Company, error)
	// UpdateCompanyPrice changes the price used for future MEAL lines only
	UpdateCompanyPrice(ctx context.Context, id uuid.UUID, input UpdatePriceInput) (*company.Company, error)
}

// MovementService records and lists register movements
type MovementService interface {
	CreateMovement(ctx context.Context, input CreateMovementInput) (*movement.Movement, error)
	DeleteMovement(ctx context.Context, id uuid.UUID) error
	ListToday(ctx context.Context) ([]*movement.Movement, error)
	ListHistory(ctx context.Context, query HistoryQuery) ([]*movement.Movement, error)
}

// ClosingService aggregates and settles agreement movements per company
type ClosingService interface {
	ListOpenTotals(ctx context.Context, query OpenTotalsQuery) ([]*closing.CompanyTotal, error)
	ListGroupedTotals(ctx context.Context, query GroupedTotalsQuery) ([]*closing.CompanyTotal, error)
	ListOpenMovements(ctx context.Context, companyID uuid.UUID) ([]*movement.Movement, error)
	PerformClosing(ctx context.Context, input PerformClosingInput) (*closing.Closing, error)
	GetClosing(ctx context.Context, id uuid.UUID) (*closing.Closing, error)
	ListClosings(ctx context.Context, companyID *uuid.UUID) ([]*closing.Closing, error)
}

// AuditService reads the audit trail
type AuditService interface {
	Query(ctx context.Context, query AuditQuery) ([]*audit.Entry, error)
	FindByEntity(ctx context.Context, entity, entityID string) ([]*audit.Entry, error)
	FindByUser(ctx context.Context, userID string) ([]*audit.Entry, error)
}

// EventService reads archived ledger events
type EventService interface {
	ListByAggregate(ctx context.Context, aggregateID string, limit int) ([]*event.LedgerEvent, error)
}

// AuditRecorder appends audit entries through the repository of the caller's unit of work
type AuditRecorder interface {
	Record(ctx context.Context, repo audit.Repository, action shared.AuditAction, entity, entityID string, oldValue, newValue interface{}) error
}

// OutboxManager stages ledger events in the outbox of the caller's unit of work
type OutboxManager interface {
	CreateOutboxEntry(ctx context.Context, repo outbox.Repository, eventType event.Type, aggregateType, aggregateID string, payload interface{}) error
}

// MovementPricer applies a company's billing policy to an agreement movement
type MovementPricer interface {
	Price(ctx context.Context, companies company.Repository, m *movement.Movement) error
}

// CompanyDirectory serves non-transactional company reads, possibly from a cache
type CompanyDirectory interface {
	Get(ctx context.Context, id uuid.UUID) (*company.Company, error)
	ListActive(ctx context.Context) ([]*company.Company, error)
	Invalidate(ctx context.Context, id uuid.UUID)
}

// TotalsEnricher fills in company name and billing type of aggregated groups
type TotalsEnricher interface {
	Enrich(ctx context.Context, totals []*closing.CompanyTotal) error
}

// SettlementLocker guards concurrent settlements of one company
type SettlementLocker interface {
	Lock(ctx context.Context, companyID uuid.UUID) (release func(), err error)
}

// OperationMetrics counts ledger operations by outcome
type OperationMetrics interface {
	IncrOperation(operation string, err error)
	RecordSettlement(movements int, total decimal.Decimal)
}
