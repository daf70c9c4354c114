package service

import (
	"context"

	"github.com/cash-register-ledger/internal/clock"
	"github.com/cash-register-ledger/internal/config"
	"github.com/cash-register-ledger/internal/domain/audit"
	"github.com/cash-register-ledger/internal/domain/store"
)

// AuditServiceImpl implements the AuditService interface
type AuditServiceImpl struct {
	uow          store.UnitOfWork
	clock        clock.Clock
	defaultLimit int
	maxLimit     int
}

// NewAuditService creates a new audit service
func NewAuditService(uow store.UnitOfWork, clk clock.Clock, cfg config.BusinessConfig) AuditService {
	return &AuditServiceImpl{
		uow:          uow,
		clock:        clk,
		defaultLimit: cfg.AuditDefaultLimit,
		maxLimit:     cfg.AuditMaxLimit,
	}
}

func (s *AuditServiceImpl) Query(ctx context.Context, query AuditQuery) ([]*audit.Entry, error) {
	if err := query.Validate(); err != nil {
		return nil, err
	}

	filter := audit.Filter{
		UserID:   query.UserID,
		Entity:   query.Entity,
		EntityID: query.EntityID,
		Action:   query.Action,
		Limit:    s.limit(query.Limit),
	}

	loc := s.clock.Location()
	if query.StartDate != "" {
		day, err := parseDayField("start_date", query.StartDate, loc)
		if err != nil {
			return nil, err
		}
		filter.From = &day
	}
	if query.EndDate != "" {
		day, err := parseDayField("end_date", query.EndDate, loc)
		if err != nil {
			return nil, err
		}
		end := clock.NextDay(day, loc)
		filter.To = &end
	}
	if filter.From != nil && filter.To != nil && !filter.From.Before(*filter.To) {
		return []*audit.Entry{}, nil
	}

	return s.uow.Reader().Audit().Find(ctx, filter)
}

// FindByEntity returns the complete history of one entity
func (s *AuditServiceImpl) FindByEntity(ctx context.Context, entity, entityID string) ([]*audit.Entry, error) {
	return s.uow.Reader().Audit().Find(ctx, audit.Filter{Entity: entity, EntityID: entityID, Limit: -1})
}

// FindByUser returns the user's most recent actions
func (s *AuditServiceImpl) FindByUser(ctx context.Context, userID string) ([]*audit.Entry, error) {
	return s.uow.Reader().Audit().Find(ctx, audit.Filter{UserID: userID, Limit: audit.UserHistoryLimit})
}

func (s *AuditServiceImpl) limit(requested int) int {
	switch {
	case requested <= 0 && s.defaultLimit > 0:
		return s.defaultLimit
	case s.maxLimit > 0 && requested > s.maxLimit:
		return s.maxLimit
	default:
		return requested
	}
}
