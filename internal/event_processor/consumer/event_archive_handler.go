package consumer

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cash-register-ledger/internal/domain/event"
	"github.com/cash-register-ledger/internal/event_processor/service"
	"github.com/cash-register-ledger/internal/platform/messaging/producers"
)

// EventArchiveHandler handles ledger events consumed from Kafka
type EventArchiveHandler struct {
	archiveService service.ArchiveService
	producer       producers.DeadLetterPublisher
	metrics        service.ArchiveMetrics
	logger         *slog.Logger
}

// NewEventArchiveHandler creates a new handler
func NewEventArchiveHandler(
	logger *slog.Logger,
	archiveService service.ArchiveService,
	producer producers.DeadLetterPublisher,
	metrics service.ArchiveMetrics,
) *EventArchiveHandler {
	return &EventArchiveHandler{
		archiveService: archiveService,
		producer:       producer,
		metrics:        metrics,
		logger:         logger,
	}
}

// HandleMessage archives one Kafka message. Undecodable messages go to the DLQ and
// are committed; archive failures are returned so the offset is not committed.
func (h *EventArchiveHandler) HandleMessage(ctx context.Context, key []byte, value []byte) error {
	var evt event.LedgerEvent
	if err := decodeEvent(value, &evt); err != nil {
		return h.deadLetter(ctx, key, value, err)
	}

	logger := h.logger
	if evt.CorrelationID != "" {
		logger = h.logger.With("correlation_id", evt.CorrelationID)
	}

	logger.Debug("Received ledger event",
		"event_id", evt.EventID.String(),
		"type", evt.Type,
		"aggregate_id", evt.AggregateID,
	)

	if err := h.archiveService.ArchiveEvent(ctx, &evt); err != nil {
		logger.Error("Failed to archive ledger event", "event_id", evt.EventID.String(), "error", err)
		return fmt.Errorf("archiving event %s failed: %w", evt.EventID.String(), err)
	}

	return nil
}

func decodeEvent(value []byte, evt *event.LedgerEvent) error {
	if err := json.Unmarshal(value, evt); err != nil {
		return err
	}
	return evt.Validate()
}

func (h *EventArchiveHandler) deadLetter(ctx context.Context, key, value []byte, cause error) error {
	const unprocessable = "Failed to decode ledger event from Kafka message"
	h.logger.Error(unprocessable, "error", cause, "message_key", string(key))

	if h.producer != nil {
		reason := fmt.Sprintf("%s: %s", unprocessable, cause.Error())
		if dlqErr := h.producer.PublishToDLQ(ctx, string(key), value, reason); dlqErr != nil {
			h.logger.Error("Failed to publish message to DLQ after decode error",
				"dlq_error", dlqErr,
				"original_error", cause,
				"message_key", string(key),
			)
		} else {
			h.metrics.IncrArchived("dead_letter")
			return nil
		}
	}
	return fmt.Errorf("failed to decode message value: %w", cause)
}
