package components

import (
	"log/slog"

	"github.com/cash-register-ledger/internal/clock"
	"github.com/cash-register-ledger/internal/config"
	"github.com/cash-register-ledger/internal/domain/event"
	"github.com/cash-register-ledger/internal/domain/store"
	"github.com/cash-register-ledger/internal/ledger/service"
	"github.com/cash-register-ledger/internal/platform/locking"
	"github.com/cash-register-ledger/internal/platform/observability"
)

// Dependencies are the infrastructure handles the ledger services are built from.
// CompanyCache, Locker and Archive are optional.
type Dependencies struct {
	UnitOfWork   store.UnitOfWork
	Clock        clock.Clock
	CompanyCache CompanyCache
	Locker       service.SettlementLocker
	Archive      event.Archive
	Metrics      *observability.Metrics
	Config       *config.Config
	Logger       *slog.Logger
}

// Services groups the ledger services exposed over HTTP
type Services struct {
	Registers service.RegisterService
	Companies service.CompanyService
	Movements service.MovementService
	Closings  service.ClosingService
	Audit     service.AuditService
	Events    service.EventService
}

// CreateLedgerServices creates every ledger service with its shared components
func CreateLedgerServices(deps Dependencies) *Services {
	logger := deps.Logger
	business := deps.Config.Business

	metrics := deps.Metrics
	if metrics == nil {
		metrics = observability.NewMetrics()
	}

	locker := deps.Locker
	if locker == nil {
		locker = locking.NoopLocker{}
	}

	auditRecorder := NewAuditRecorder(deps.Clock, logger.With("component", "audit_recorder"))
	outboxManager := NewOutboxManager(deps.Clock, logger.With("component", "outbox_manager"))
	pricer := NewMovementPricer(logger.With("component", "movement_pricer"))
	directory := NewCompanyDirectory(deps.UnitOfWork, deps.CompanyCache, metrics, logger.With("component", "company_directory"))
	enricher := NewTotalsEnricher(directory, deps.Config.WorkerPool.Size, logger.With("component", "totals_enricher"))

	services := &Services{
		Registers: service.NewRegisterService(
			deps.UnitOfWork, deps.Clock, auditRecorder, outboxManager, metrics, business,
			logger.With("service", "register"),
		),
		Companies: service.NewCompanyService(
			deps.UnitOfWork, deps.Clock, directory, auditRecorder, outboxManager, metrics,
			logger.With("service", "company"),
		),
		Movements: service.NewMovementService(
			deps.UnitOfWork, deps.Clock, pricer, auditRecorder, outboxManager, metrics,
			logger.With("service", "movement"),
		),
		Closings: service.NewClosingService(
			deps.UnitOfWork, deps.Clock, directory, enricher, locker, auditRecorder, outboxManager, metrics, business,
			logger.With("service", "closing"),
		),
		Audit:  service.NewAuditService(deps.UnitOfWork, deps.Clock, business),
		Events: service.NewEventService(deps.Archive),
	}

	logger.Info("Created ledger services",
		"company_cache", deps.CompanyCache != nil,
		"event_archive", deps.Archive != nil,
	)
	return services
}
