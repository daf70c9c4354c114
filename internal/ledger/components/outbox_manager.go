package components

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/cash-register-ledger/internal/clock"
	"github.com/cash-register-ledger/internal/domain/event"
	"github.com/cash-register-ledger/internal/domain/outbox"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/cash-register-ledger/internal/ledger/service"
)

type OutboxManagerImpl struct {
	clock  clock.Clock
	logger *slog.Logger
}

func NewOutboxManager(clk clock.Clock, logger *slog.Logger) service.OutboxManager {
	return &OutboxManagerImpl{
		clock:  clk,
		logger: logger,
	}
}

// CreateOutboxEntry stages a ledger event in the caller's unit of work. The poller
// publishes it only once the unit of work commits.
func (m *OutboxManagerImpl) CreateOutboxEntry(ctx context.Context, repo outbox.Repository, eventType event.Type, aggregateType, aggregateID string, payload interface{}) error {
	actor, _ := shared.ActorFromContext(ctx)
	logger := m.logger
	if actor.CorrelationID != "" {
		logger = m.logger.With("correlation_id", actor.CorrelationID)
	}

	evt, err := event.NewLedgerEvent(eventType, aggregateType, aggregateID, actor, payload, m.clock.Now())
	if err != nil {
		logger.Error("Failed to build ledger event", "event_type", string(eventType), "aggregate_id", aggregateID, "error", err)
		return fmt.Errorf("failed to build %s event for %s: %w", eventType, aggregateID, err)
	}

	outboxMessage, err := outbox.NewMessage(evt)
	if err != nil {
		logger.Error("Failed to create new outbox message (marshal payload)",
			"event_id", evt.EventID.String(),
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message payload for %s: %w", aggregateID, err)
	}

	if err = repo.Create(ctx, outboxMessage); err != nil {
		logger.Error("Failed to create outbox message",
			"event_id", evt.EventID.String(),
			"aggregate_id", aggregateID,
			"error", err,
		)
		return fmt.Errorf("failed to create outbox message for %s: %w", aggregateID, err)
	}
	logger.Info("Outbox message created successfully",
		"event_type", string(eventType),
		"event_id", evt.EventID.String(),
		"outbox_id", outboxMessage.ID,
	)

	return nil
}
