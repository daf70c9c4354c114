package service

import (
	"context"
	"errors"
	"log/slog"

	"github.com/cash-register-ledger/internal/clock"
	"github.com/cash-register-ledger/internal/domain/event"
	"github.com/cash-register-ledger/internal/domain/movement"
	"github.com/cash-register-ledger/internal/domain/register"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/cash-register-ledger/internal/domain/store"
	"github.com/google/uuid"
)

// MovementServiceImpl implements the MovementService interface
type MovementServiceImpl struct {
	uow           store.UnitOfWork
	clock         clock.Clock
	pricer        MovementPricer
	auditRecorder AuditRecorder
	outboxManager OutboxManager
	metrics       OperationMetrics
	logger        *slog.Logger
}

// NewMovementService creates a new movement service
func NewMovementService(
	uow store.UnitOfWork,
	clk clock.Clock,
	pricer MovementPricer,
	auditRecorder AuditRecorder,
	outboxManager OutboxManager,
	metrics OperationMetrics,
	logger *slog.Logger,
) MovementService {
	return &MovementServiceImpl{
		uow:           uow,
		clock:         clk,
		pricer:        pricer,
		auditRecorder: auditRecorder,
		outboxManager: outboxManager,
		metrics:       metrics,
		logger:        logger,
	}
}

// openRegister returns today's register while holding a shared lock on it, so a
// concurrent close waits until the caller's writes commit
func (s *MovementServiceImpl) openRegister(ctx context.Context, repos store.Repositories) (*register.Register, error) {
	reg, err := repos.Registers().LockByDate(ctx, s.clock.Today(), register.LockShare)
	if err != nil {
		if errors.Is(err, register.ErrRegisterNotFound{}) {
			return nil, register.ErrRegisterNotOpen
		}
		return nil, err
	}
	if !reg.IsOpen() {
		return nil, register.ErrRegisterNotOpen
	}
	return reg, nil
}

func (s *MovementServiceImpl) CreateMovement(ctx context.Context, input CreateMovementInput) (*movement.Movement, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	actor, err := requireActor(ctx)
	if err != nil {
		return nil, err
	}

	var created *movement.Movement
	err = s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		reg, err := s.openRegister(ctx, repos)
		if err != nil {
			return err
		}

		m := movement.New(reg.ID, movement.Draft{
			Type:         input.Type,
			CompanyID:    input.CompanyID,
			ItemCategory: input.ItemCategory,
			Consumer:     input.Consumer,
			Description:  input.Description,
			Quantity:     input.quantity(),
			Amount:       input.Amount,
		}, actor.UserID, s.clock.Now())

		if m.Type.IsAgreement() {
			if err := s.pricer.Price(ctx, repos.Companies(), m); err != nil {
				return err
			}
		}
		if err := m.CheckAmount(); err != nil {
			return err
		}

		if err := repos.Movements().Create(ctx, m); err != nil {
			return err
		}

		id := m.ID.String()
		if err := s.auditRecorder.Record(ctx, repos.Audit(), shared.AuditActionCreate, shared.EntityMovement, id, nil, m); err != nil {
			return err
		}
		if err := s.outboxManager.CreateOutboxEntry(ctx, repos.Outbox(), event.TypeMovementCreated, shared.EntityMovement, id, m); err != nil {
			return err
		}
		created = m
		return nil
	})
	s.metrics.IncrOperation(opCreateMovement, err)
	if err != nil {
		return nil, err
	}

	s.logger.Info("Movement created",
		"movement_id", created.ID.String(),
		"type", string(created.Type),
		"amount", created.Amount.String(),
		"user_id", actor.UserID,
	)
	return created, nil
}

func (s *MovementServiceImpl) DeleteMovement(ctx context.Context, id uuid.UUID) error {
	actor, err := requireActor(ctx)
	if err != nil {
		return err
	}

	err = s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		reg, err := s.openRegister(ctx, repos)
		if err != nil {
			return err
		}

		m, err := repos.Movements().LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		if !m.BelongsTo(reg.ID) {
			return movement.ErrCrossDayDeleteForbidden
		}
		if m.IsSettled() {
			return movement.ErrMovementSettled
		}

		if err := repos.Movements().Delete(ctx, id); err != nil {
			return err
		}

		if err := s.auditRecorder.Record(ctx, repos.Audit(), shared.AuditActionDelete, shared.EntityMovement, id.String(), m, nil); err != nil {
			return err
		}
		return s.outboxManager.CreateOutboxEntry(ctx, repos.Outbox(), event.TypeMovementDeleted, shared.EntityMovement, id.String(), m)
	})
	s.metrics.IncrOperation(opDeleteMovement, err)
	if err != nil {
		return err
	}

	s.logger.Info("Movement deleted", "movement_id", id.String(), "user_id", actor.UserID)
	return nil
}

// ListToday returns every movement of today's register, newest first
func (s *MovementServiceImpl) ListToday(ctx context.Context) ([]*movement.Movement, error) {
	repos := s.uow.Reader()
	reg, err := repos.Registers().GetByDate(ctx, s.clock.Today())
	if err != nil {
		if errors.Is(err, register.ErrRegisterNotFound{}) {
			return []*movement.Movement{}, nil
		}
		return nil, err
	}
	return repos.Movements().ListByReport(ctx, reg.ID, 0)
}

func (s *MovementServiceImpl) ListHistory(ctx context.Context, query HistoryQuery) ([]*movement.Movement, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}
	from, to, err := dayWindow(query.StartDate, query.EndDate, s.clock.Location())
	if err != nil {
		return nil, err
	}

	return s.uow.Reader().Movements().ListByPeriod(ctx, movement.PeriodFilter{
		From:      from,
		To:        to,
		CompanyID: query.CompanyID,
	})
}
