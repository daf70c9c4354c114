package outbox_poller

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cash-register-ledger/internal/domain/outbox"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/cash-register-ledger/internal/platform/messaging/producers"
	"github.com/segmentio/kafka-go"
	"github.com/sony/gobreaker"
)

// Kafka headers set on every relayed event
const (
	HeaderEventType     = "event_type"
	HeaderAggregateType = "aggregate_type"
	HeaderCorrelationID = "correlation_id"
)

// EventPublisher relays one outbox message to the event topic and marks it processed
type EventPublisher interface {
	PublishEvent(ctx context.Context, message *outbox.Message) error
}

// KafkaEventPublisher implements EventPublisher behind a circuit breaker. While the
// breaker is open publishing fails fast with gobreaker.ErrOpenState.
type KafkaEventPublisher struct {
	outboxRepo outbox.Repository
	producer   producers.MessagePublisher
	breaker    *gobreaker.CircuitBreaker
	logger     *slog.Logger
}

// NewEventPublisher creates a new publisher
func NewEventPublisher(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	breaker *gobreaker.CircuitBreaker,
	logger *slog.Logger,
) EventPublisher {
	return &KafkaEventPublisher{
		outboxRepo: outboxRepo,
		producer:   producer,
		breaker:    breaker,
		logger:     logger,
	}
}

// PublishEvent writes the stored event keyed by its aggregate, so events of one
// register, company or closing stay ordered on a single partition
func (p *KafkaEventPublisher) PublishEvent(ctx context.Context, message *outbox.Message) error {
	evt, err := message.GetLedgerEvent()
	if err != nil {
		p.logger.Error("Failed to decode ledger event from outbox payload",
			"outbox_id", message.ID, "event_id", message.EventID, "error", err,
		)
		return fmt.Errorf("decode payload of outbox message %d: %w", message.ID, err)
	}

	logger := p.logger
	if evt.CorrelationID != "" {
		logger = p.logger.With("correlation_id", evt.CorrelationID)
	}

	headers := []kafka.Header{
		{Key: HeaderEventType, Value: []byte(message.EventType)},
		{Key: HeaderAggregateType, Value: []byte(message.AggregateType)},
	}
	if evt.CorrelationID != "" {
		headers = append(headers, kafka.Header{Key: HeaderCorrelationID, Value: []byte(evt.CorrelationID)})
	}

	_, err = p.breaker.Execute(func() (interface{}, error) {
		return nil, p.producer.Publish(ctx, message.AggregateID, json.RawMessage(message.Payload), headers...)
	})
	if err != nil {
		return fmt.Errorf("publish outbox message %d: %w", message.ID, err)
	}

	if err := p.outboxRepo.UpdateStatus(ctx, message.ID, shared.OutboxStatusProcessed); err != nil {
		logger.Error("Failed to update outbox message status to PROCESSED",
			"outbox_id", message.ID, "event_id", message.EventID, "error", err,
		)
		return fmt.Errorf("event %s published, but failed to mark outbox %d as PROCESSED: %w", message.EventID, message.ID, err)
	}

	logger.Info("Relayed ledger event",
		"outbox_id", message.ID,
		"event_id", message.EventID,
		"event_type", message.EventType,
		"aggregate_id", message.AggregateID,
	)
	return nil
}
