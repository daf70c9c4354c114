package outbox_poller

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cash-register-ledger/internal/config"
	"github.com/cash-register-ledger/internal/domain/outbox"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/cash-register-ledger/internal/platform/messaging/producers"
	"github.com/sony/gobreaker"
)

// RelayMetrics counts relay outcomes
type RelayMetrics interface {
	IncrOutbox(result string)
}

// Poller relays pending outbox messages to Kafka
type Poller struct {
	outboxRepo       outbox.Repository
	publisher        EventPublisher
	deadLetters      producers.DeadLetterPublisher
	metrics          RelayMetrics
	logger           *slog.Logger
	pollInterval     time.Duration
	batchSize        int
	maxRetryAttempts int
}

// NewPoller creates a poller. deadLetters may be nil; exhausted messages are then
// only marked FAILED_TO_PUBLISH.
func NewPoller(
	cfg *config.OutboxConfig,
	outboxRepo outbox.Repository,
	publisher EventPublisher,
	deadLetters producers.DeadLetterPublisher,
	metrics RelayMetrics,
	logger *slog.Logger,
) *Poller {
	return &Poller{
		outboxRepo:       outboxRepo,
		publisher:        publisher,
		deadLetters:      deadLetters,
		metrics:          metrics,
		logger:           logger,
		pollInterval:     cfg.PollingInterval,
		batchSize:        cfg.BatchSize,
		maxRetryAttempts: cfg.MaxRetryAttempts,
	}
}

// Start begins polling until context is canceled
func (p *Poller) Start(ctx context.Context) {
	p.logger.Info("Starting Outbox Poller",
		"poll_interval", p.pollInterval.String(),
		"batch_size", p.batchSize,
		"max_retry_attempts", p.maxRetryAttempts,
	)
	ticker := time.NewTicker(p.pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			p.logger.Info("Outbox Poller stopping due to context cancellation.")
			return
		case <-ticker.C:
			if err := p.processPendingMessages(ctx); err != nil {
				p.logger.Error("Error during batch processing of pending outbox messages", "error", err)
			}
		}
	}
}

func (p *Poller) processPendingMessages(ctx context.Context) error {
	messages, err := p.outboxRepo.GetPending(ctx, p.batchSize)
	if err != nil {
		return fmt.Errorf("failed to get pending outbox messages: %w", err)
	}

	if len(messages) == 0 {
		p.logger.Debug("No pending outbox messages found.")
		return nil
	}

	p.logger.Debug("Fetched pending outbox messages", "count", len(messages))

	for i, msg := range messages {
		err := p.publisher.PublishEvent(ctx, msg)
		if err == nil {
			p.metrics.IncrOutbox("published")
			continue
		}

		if errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests) {
			// Broker unavailable: leave the rest of the batch untouched for a later tick
			p.logger.Warn("Event relay paused by open circuit breaker", "outbox_id", msg.ID, "skipped", len(messages)-i)
			return nil
		}

		p.handleFailure(ctx, msg, err)
	}
	return nil
}

func (p *Poller) handleFailure(ctx context.Context, msg *outbox.Message, publishErr error) {
	logger := p.logger.With("outbox_id", msg.ID, "event_id", msg.EventID.String())
	logger.Error("Failed to relay outbox message", "current_attempts", msg.Attempts, "error", publishErr)

	if err := p.outboxRepo.IncrementAttempts(ctx, msg.ID); err != nil {
		logger.Error("Failed to increment attempts for outbox message", "error", err)
		return
	}

	if msg.Attempts+1 < p.maxRetryAttempts {
		p.metrics.IncrOutbox("retry")
		return
	}

	logger.Warn("Max retry attempts reached for outbox message, marking as FAILED_TO_PUBLISH", "attempts_made", msg.Attempts+1)
	if p.deadLetters != nil {
		reason := fmt.Sprintf("relay failed after %d attempts: %s", msg.Attempts+1, publishErr.Error())
		if err := p.deadLetters.PublishToDLQ(ctx, msg.AggregateID, msg.Payload, reason); err != nil && !errors.Is(err, producers.ErrDLQDisabled) {
			logger.Error("Failed to forward exhausted outbox message to DLQ", "error", err)
		}
	}
	if err := p.outboxRepo.UpdateStatus(ctx, msg.ID, shared.OutboxStatusFailedToPublish); err != nil {
		logger.Error("Failed to update outbox status to FAILED_TO_PUBLISH after max retries", "error", err)
	}
	p.metrics.IncrOutbox("failed")
}
