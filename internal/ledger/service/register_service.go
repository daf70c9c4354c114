package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cash-register-ledger/internal/clock"
	"github.com/cash-register-ledger/internal/config"
	"github.com/cash-register-ledger/internal/domain/event"
	"github.com/cash-register-ledger/internal/domain/movement"
	"github.com/cash-register-ledger/internal/domain/register"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/cash-register-ledger/internal/domain/store"
)

// RegisterServiceImpl implements the RegisterService interface
type RegisterServiceImpl struct {
	uow           store.UnitOfWork
	clock         clock.Clock
	auditRecorder AuditRecorder
	outboxManager OutboxManager
	metrics       OperationMetrics
	recentLimit   int
	logger        *slog.Logger
}

// NewRegisterService creates a new register service
func NewRegisterService(
	uow store.UnitOfWork,
	clk clock.Clock,
	auditRecorder AuditRecorder,
	outboxManager OutboxManager,
	metrics OperationMetrics,
	cfg config.BusinessConfig,
	logger *slog.Logger,
) RegisterService {
	return &RegisterServiceImpl{
		uow:           uow,
		clock:         clk,
		auditRecorder: auditRecorder,
		outboxManager: outboxManager,
		metrics:       metrics,
		recentLimit:   cfg.RecentMovementsLimit,
		logger:        logger,
	}
}

func (s *RegisterServiceImpl) GetToday(ctx context.Context) (*TodayView, error) {
	today := s.clock.Today()
	view := &TodayView{
		Date:            clock.FormatDay(today, s.clock.Location()),
		RecentMovements: []*movement.Movement{},
	}

	repos := s.uow.Reader()
	reg, err := repos.Registers().GetByDate(ctx, today)
	if err != nil {
		if errors.Is(err, register.ErrRegisterNotFound{}) {
			return view, nil
		}
		return nil, err
	}

	recent, err := repos.Movements().ListByReport(ctx, reg.ID, s.recentLimit)
	if err != nil {
		return nil, err
	}

	view.Register = reg
	view.Open = reg.IsOpen()
	view.RecentMovements = recent
	return view, nil
}

func (s *RegisterServiceImpl) StartDay(ctx context.Context, input StartDayInput) (*register.Register, bool, error) {
	if err := input.Validate(); err != nil {
		return nil, false, err
	}
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, false, err
	}

	var (
		stored  *register.Register
		created bool
	)
	err = s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		reg, err := register.NewRegister(s.clock.Today(), input.OpeningBalance, actor.UserID, s.clock.Now())
		if err != nil {
			return err
		}

		stored, created, err = repos.Registers().CreateIfAbsent(ctx, reg)
		if err != nil {
			return err
		}
		if !created {
			return nil
		}

		id := stored.ID.String()
		if err := s.auditRecorder.Record(ctx, repos.Audit(), shared.AuditActionOpen, shared.EntityDailyReport, id, nil, stored); err != nil {
			return err
		}
		return s.outboxManager.CreateOutboxEntry(ctx, repos.Outbox(), event.TypeRegisterOpened, shared.EntityDailyReport, id, stored)
	})
	s.metrics.IncrOperation(opStartDay, err)
	if err != nil {
		return nil, false, err
	}

	if created {
		s.logger.Info("Register opened", "register_id", stored.ID.String(), "opened_by", actor.UserID)
	}
	return stored, created, nil
}

func (s *RegisterServiceImpl) CloseDay(ctx context.Context) (*register.DaySummary, error) {
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	today := s.clock.Today()
	var summary *register.DaySummary
	err = s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		reg, err := repos.Registers().LockByDate(ctx, today, register.LockUpdate)
		if err != nil {
			if errors.Is(err, register.ErrRegisterNotFound{}) {
				return register.ErrRegisterNotOpen
			}
			return err
		}
		if !reg.IsOpen() {
			return register.ErrRegisterAlreadyClosed
		}
		before := *reg

		movements, err := repos.Movements().ListByReport(ctx, reg.ID, 0)
		if err != nil {
			return err
		}
		summary = register.Summarize(reg, clock.FormatDay(today, s.clock.Location()), movements)

		if err := reg.Close(summary.Total, actor.UserID, s.clock.Now()); err != nil {
			return err
		}
		if err := repos.Registers().Update(ctx, reg); err != nil {
			return err
		}
		summary.Status = reg.Status

		id := reg.ID.String()
		if err := s.auditRecorder.Record(ctx, repos.Audit(), shared.AuditActionClose, shared.EntityDailyReport, id, before, reg); err != nil {
			return err
		}
		return s.outboxManager.CreateOutboxEntry(ctx, repos.Outbox(), event.TypeRegisterClosed, shared.EntityDailyReport, id, summary)
	})
	s.metrics.IncrOperation(opCloseDay, err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Register closed", "register_id", summary.RegisterID.String(), "total", summary.Total.String(), "closed_by", actor.UserID)
	return summary, nil
}

func (s *RegisterServiceImpl) GetDaySummary(ctx context.Context, date string) (*register.DaySummary, error) {
	day := s.clock.Today()
	if date != "" {
		parsed, err := parseDayField("date", date, s.clock.Location())
		if err != nil {
			return nil, err
		}
		day = parsed
	}

	repos := s.uow.Reader()
	reg, err := repos.Registers().GetByDate(ctx, day)
	if err != nil {
		return nil, err
	}
	movements, err := repos.Movements().ListByReport(ctx, reg.ID, 0)
	if err != nil {
		return nil, err
	}
	return register.Summarize(reg, clock.FormatDay(day, s.clock.Location()), movements), nil
}
