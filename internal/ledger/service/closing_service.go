package service

import (
	"context"
	"log/slog"
	"time"

	"github.com/cash-register-ledger/internal/clock"
	"github.com/cash-register-ledger/internal/config"
	"github.com/cash-register-ledger/internal/domain/closing"
	"github.com/cash-register-ledger/internal/domain/event"
	"github.com/cash-register-ledger/internal/domain/movement"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/cash-register-ledger/internal/domain/store"
	"github.com/google/uuid"
)

// ClosingServiceImpl implements the ClosingService interface
type ClosingServiceImpl struct {
	uow           store.UnitOfWork
	clock         clock.Clock
	directory     CompanyDirectory
	enricher      TotalsEnricher
	locker        SettlementLocker
	auditRecorder AuditRecorder
	outboxManager OutboxManager
	metrics       OperationMetrics
	lockTimeout   time.Duration
	logger        *slog.Logger
}

// NewClosingService creates a new closing service
func NewClosingService(
	uow store.UnitOfWork,
	clk clock.Clock,
	directory CompanyDirectory,
	enricher TotalsEnricher,
	locker SettlementLocker,
	auditRecorder AuditRecorder,
	outboxManager OutboxManager,
	metrics OperationMetrics,
	cfg config.BusinessConfig,
	logger *slog.Logger,
) ClosingService {
	return &ClosingServiceImpl{
		uow:           uow,
		clock:         clk,
		directory:     directory,
		enricher:      enricher,
		locker:        locker,
		auditRecorder: auditRecorder,
		outboxManager: outboxManager,
		metrics:       metrics,
		lockTimeout:   cfg.SettlementLockTimeout,
		logger:        logger,
	}
}

// ListOpenTotals groups unsettled agreements per company created before the end of
// the requested day, or of today
func (s *ClosingServiceImpl) ListOpenTotals(ctx context.Context, query OpenTotalsQuery) ([]*closing.CompanyTotal, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	loc := s.clock.Location()
	cutoff := clock.NextDay(s.clock.Today(), loc)
	if query.EndDate != "" {
		day, err := parseDayField("end_date", query.EndDate, loc)
		if err != nil {
			return nil, err
		}
		cutoff = clock.NextDay(day, loc)
	}

	return s.totals(ctx, closing.TotalsFilter{
		To:        cutoff,
		CompanyID: query.CompanyID,
		OpenOnly:  true,
	})
}

// ListGroupedTotals groups every agreement of the window per company, settled or not
func (s *ClosingServiceImpl) ListGroupedTotals(ctx context.Context, query GroupedTotalsQuery) ([]*closing.CompanyTotal, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	from, to, err := dayWindow(query.StartDate, query.EndDate, s.clock.Location())
	if err != nil {
		return nil, err
	}

	return s.totals(ctx, closing.TotalsFilter{
		From:      &from,
		To:        to,
		CompanyID: query.CompanyID,
	})
}

func (s *ClosingServiceImpl) totals(ctx context.Context, filter closing.TotalsFilter) ([]*closing.CompanyTotal, error) {
	totals, err := s.uow.Reader().Closings().AgreementTotals(ctx, filter)
	if err != nil {
		return nil, err
	}
	if err := s.enricher.Enrich(ctx, totals); err != nil {
		return nil, err
	}
	return totals, nil
}

func (s *ClosingServiceImpl) ListOpenMovements(ctx context.Context, companyID uuid.UUID) ([]*movement.Movement, error) {
	if _, err := s.directory.Get(ctx, companyID); err != nil {
		return nil, err
	}
	return s.uow.Reader().Movements().ListOpenAgreements(ctx, companyID, nil, false)
}

// PerformClosing settles every open agreement of the company created up to the end
// of the requested day. A company is settled by one caller at a time: the
// distributed lock rejects overlapping requests early and the company row lock
// serializes whatever gets past it.
func (s *ClosingServiceImpl) PerformClosing(ctx context.Context, input PerformClosingInput) (*closing.Closing, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	loc := s.clock.Location()
	day, err := parseDayField("end_date", input.EndDate, loc)
	if err != nil {
		return nil, err
	}
	cutoff := clock.NextDay(day, loc)

	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	release, err := s.locker.Lock(ctx, input.CompanyID)
	if err != nil {
		s.metrics.IncrOperation(opPerformClosing, err)
		return nil, err
	}
	defer release()

	if s.lockTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.lockTimeout)
		defer cancel()
	}

	var result *closing.Closing
	err = s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		if _, err := repos.Companies().LockForUpdate(ctx, input.CompanyID); err != nil {
			return err
		}

		open, err := repos.Movements().ListOpenAgreements(ctx, input.CompanyID, &cutoff, true)
		if err != nil {
			return err
		}

		c, err := closing.NewClosing(input.CompanyID, clock.EndOfDay(day, loc), open, actor.UserID, s.clock.Now())
		if err != nil {
			return err
		}
		if err := repos.Closings().Create(ctx, c); err != nil {
			return err
		}

		stamped, err := repos.Movements().MarkSettled(ctx, c.ID, closing.MovementIDs(open))
		if err != nil {
			return err
		}
		if stamped != int64(len(open)) {
			return closing.ErrConcurrentSettlement{CompanyID: input.CompanyID, Expected: int64(len(open)), Stamped: stamped}
		}

		id := c.ID.String()
		if err := s.auditRecorder.Record(ctx, repos.Audit(), shared.AuditActionCreate, shared.EntityClosing, id, nil, c); err != nil {
			return err
		}
		if err := s.outboxManager.CreateOutboxEntry(ctx, repos.Outbox(), event.TypeClosingPerformed, shared.EntityClosing, id, c); err != nil {
			return err
		}
		result = c
		return nil
	})
	s.metrics.IncrOperation(opPerformClosing, err)
	if err != nil {
		return nil, err
	}

	s.metrics.RecordSettlement(result.MovementCount, result.TotalAmount)
	s.logger.Info("Closing performed",
		"closing_id", result.ID.String(),
		"company_id", result.CompanyID.String(),
		"movement_count", result.MovementCount,
		"total_amount", result.TotalAmount.String(),
		"created_by", actor.UserID,
	)
	return result, nil
}

func (s *ClosingServiceImpl) GetClosing(ctx context.Context, id uuid.UUID) (*closing.Closing, error) {
	return s.uow.Reader().Closings().GetByID(ctx, id)
}

func (s *ClosingServiceImpl) ListClosings(ctx context.Context, companyID *uuid.UUID) ([]*closing.Closing, error) {
	return s.uow.Reader().Closings().List(ctx, companyID)
}
