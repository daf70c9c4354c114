package producers

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/cash-register-ledger/internal/config"
	"github.com/segmentio/kafka-go"
)

// MessagePublisher publishes a keyed ledger event. json.RawMessage values are sent as is.
type MessagePublisher interface {
	Publish(ctx context.Context, key string, value interface{}, headers ...kafka.Header) error
	Close() error
}

var _ MessagePublisher = (*LedgerEventProducer)(nil)

// LedgerEventProducer writes ledger events synchronously so the outbox relay only
// marks a message as processed once the broker acknowledged it.
type LedgerEventProducer struct {
	logger *slog.Logger
	writer KafkaWriter
	topic  string
}

// NewLedgerEventProducer ensures the event topic exists and returns a producer for it
func NewLedgerEventProducer(ctx context.Context, logger *slog.Logger, cfg *config.KafkaConfig) (*LedgerEventProducer, error) {
	if cfg.EventTopic == "" {
		return nil, fmt.Errorf("kafka event topic is not configured")
	}

	if err := EnsureTopic(ctx, logger, cfg.BrokerList(), cfg.EventTopic, cfg.NumPartitions, cfg.ReplicationFactor); err != nil {
		return nil, fmt.Errorf("failed to ensure event topic %s exists: %w", cfg.EventTopic, err)
	}

	writer := &kafka.Writer{
		Addr: kafka.TCP(cfg.BrokerList()...),
		// Events of one aggregate share a key, so they land on one partition in order
		Topic:        cfg.EventTopic,
		Balancer:     &kafka.Hash{},
		RequiredAcks: kafka.RequireAll,
		WriteTimeout: cfg.MaxWait,
	}

	return newLedgerEventProducer(logger, writer, cfg.EventTopic), nil
}

func newLedgerEventProducer(logger *slog.Logger, writer KafkaWriter, topic string) *LedgerEventProducer {
	return &LedgerEventProducer{
		logger: logger,
		writer: writer,
		topic:  topic,
	}
}

// Publish writes value as JSON. A json.RawMessage value is sent as is.
func (p *LedgerEventProducer) Publish(ctx context.Context, key string, value interface{}, headers ...kafka.Header) error {
	var body []byte
	switch v := value.(type) {
	case json.RawMessage:
		body = v
	default:
		encoded, err := json.Marshal(value)
		if err != nil {
			return fmt.Errorf("failed to marshal ledger event: %w", err)
		}
		body = encoded
	}

	msg := kafka.Message{
		Key:     []byte(key),
		Value:   body,
		Headers: headers,
	}

	if err := p.writer.WriteMessages(ctx, msg); err != nil {
		p.logger.Error("Failed to publish ledger event",
			"topic", p.topic,
			"key", key,
			"error", err,
		)
		return fmt.Errorf("failed to publish ledger event to %s: %w", p.topic, err)
	}

	p.logger.Debug("Published ledger event", "topic", p.topic, "key", key)
	return nil
}

func (p *LedgerEventProducer) Close() error {
	p.logger.Info("Closing ledger event producer", "topic", p.topic)
	if err := p.writer.Close(); err != nil {
		return fmt.Errorf("failed to close kafka writer for topic %s: %w", p.topic, err)
	}
	return nil
}
