package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cash-register-ledger/internal/clock"
	"github.com/cash-register-ledger/internal/domain/audit"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/cash-register-ledger/internal/ledger/service"
)

type AuditRecorderImpl struct {
	clock  clock.Clock
	logger *slog.Logger
}

func NewAuditRecorder(clk clock.Clock, logger *slog.Logger) service.AuditRecorder {
	return &AuditRecorderImpl{
		clock:  clk,
		logger: logger,
	}
}

// Record appends an audit entry attributed to the actor on ctx. The entry commits or
// rolls back with the caller's unit of work.
func (r *AuditRecorderImpl) Record(ctx context.Context, repo audit.Repository, action shared.AuditAction, entity, entityID string, oldValue, newValue interface{}) error {
	actor, _ := shared.ActorFromContext(ctx)
	logger := r.logger
	if actor.CorrelationID != "" {
		logger = r.logger.With("correlation_id", actor.CorrelationID)
	}

	entry, err := audit.NewEntry(actor, action, entity, entityID, oldValue, newValue, r.clock.Now())
	if err != nil {
		logger.Error("Failed to build audit entry", "entity", entity, "entity_id", entityID, "error", err)
		return fmt.Errorf("failed to build audit entry for %s %s: %w", entity, entityID, err)
	}

	if err := repo.Create(ctx, entry); err != nil {
		logger.Error("Failed to record audit entry",
			"entity", entity,
			"entity_id", entityID,
			"action", string(action),
			"error", err,
		)
		return fmt.Errorf("failed to record audit entry for %s %s: %w", entity, entityID, err)
	}

	logger.Debug("Audit entry recorded", "audit_id", entry.ID.String(), "entity", entity, "action", string(action))
	return nil
}
