package service

import (
	"context"
	"log/slog"

	"github.com/cash-register-ledger/internal/clock"
	"github.com/cash-register-ledger/internal/domain/company"
	"github.com/cash-register-ledger/internal/domain/event"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/cash-register-ledger/internal/domain/store"
	"github.com/google/uuid"
)

// CompanyServiceImpl implements the CompanyService interface
type CompanyServiceImpl struct {
	uow           store.UnitOfWork
	clock         clock.Clock
	directory     CompanyDirectory
	auditRecorder AuditRecorder
	outboxManager OutboxManager
	metrics       OperationMetrics
	logger        *slog.Logger
}

// NewCompanyService creates a new company service
func NewCompanyService(
	uow store.UnitOfWork,
	clk clock.Clock,
	directory CompanyDirectory,
	auditRecorder AuditRecorder,
	outboxManager OutboxManager,
	metrics OperationMetrics,
	logger *slog.Logger,
) CompanyService {
	return &CompanyServiceImpl{
		uow:           uow,
		clock:         clk,
		directory:     directory,
		auditRecorder: auditRecorder,
		outboxManager: outboxManager,
		metrics:       metrics,
		logger:        logger,
	}
}

func (s *CompanyServiceImpl) CreateCompany(ctx context.Context, input CreateCompanyInput) (*company.Company, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}

	c, err := company.NewCompany(input.Name, input.PriceUnit, input.BillingType, s.clock.Now())
	if err != nil {
		return nil, err
	}

	err = s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		if err := repos.Companies().Create(ctx, c); err != nil {
			return err
		}
		id := c.ID.String()
		if err := s.auditRecorder.Record(ctx, repos.Audit(), shared.AuditActionCreate, shared.EntityCompany, id, nil, c); err != nil {
			return err
		}
		return s.outboxManager.CreateOutboxEntry(ctx, repos.Outbox(), event.TypeCompanyCreated, shared.EntityCompany, id, c)
	})
	s.metrics.IncrOperation(opCreateCompany, err)
	if err != nil {
		return nil, err
	}

	s.directory.Invalidate(ctx, c.ID)
	s.logger.Info("Company created", "company_id", c.ID.String(), "billing_type", string(c.BillingType))
	return c, nil
}

func (s *CompanyServiceImpl) GetCompany(ctx context.Context, id uuid.UUID) (*company.Company, error) {
	return s.directory.Get(ctx, id)
}

func (s *CompanyServiceImpl) ListActiveCompanies(ctx context.Context) ([]*company.Company, error) {
	return s.directory.ListActive(ctx)
}

func (s *CompanyServiceImpl) SetCompanyActive(ctx context.Context, id uuid.UUID, input SetActiveInput) (*company.Company, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(c *company.Company) error {
		c.SetActive(*input.Active, s.clock.Now())
		return nil
	})
}

func (s *CompanyServiceImpl) UpdateCompanyPrice(ctx context.Context, id uuid.UUID, input UpdatePriceInput) (*company.Company, error) {
	if err := input.Validate(); err != nil {
		return nil, err
	}
	return s.update(ctx, id, func(c *company.Company) error {
		return c.ChangePrice(input.PriceUnit, s.clock.Now())
	})
}

// update applies change to the locked company and records the before and after snapshots
func (s *CompanyServiceImpl) update(ctx context.Context, id uuid.UUID, change func(c *company.Company) error) (*company.Company, error) {
	if _, err := requireActor(ctx); err != nil {
		return nil, err
	}

	var updated *company.Company
	err := s.uow.Do(ctx, func(ctx context.Context, repos store.Repositories) error {
		c, err := repos.Companies().LockForUpdate(ctx, id)
		if err != nil {
			return err
		}
		before := *c

		if err := change(c); err != nil {
			return err
		}
		if err := repos.Companies().Update(ctx, c); err != nil {
			return err
		}

		if err := s.auditRecorder.Record(ctx, repos.Audit(), shared.AuditActionUpdate, shared.EntityCompany, id.String(), before, c); err != nil {
			return err
		}
		if err := s.outboxManager.CreateOutboxEntry(ctx, repos.Outbox(), event.TypeCompanyUpdated, shared.EntityCompany, id.String(), c); err != nil {
			return err
		}
		updated = c
		return nil
	})
	s.metrics.IncrOperation(opUpdateCompany, err)
	if err != nil {
		return nil, err
	}

	s.directory.Invalidate(ctx, id)
	return updated, nil
}
