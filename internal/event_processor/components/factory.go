package components

import (
	"log/slog"

	"github.com/cash-register-ledger/internal/config"
	"github.com/cash-register-ledger/internal/domain/event"
	"github.com/cash-register-ledger/internal/domain/outbox"
	"github.com/cash-register-ledger/internal/event_processor/outbox_poller"
	"github.com/cash-register-ledger/internal/event_processor/service"
	"github.com/cash-register-ledger/internal/platform/messaging/producers"
	"github.com/cash-register-ledger/internal/platform/observability"
	"github.com/cash-register-ledger/internal/platform/resilience"
)

// RelayBreakerName labels the circuit breaker guarding the event topic
const RelayBreakerName = "kafka_event_relay"

// CreateArchiveService creates the archive service behind a worker pool. The returned
// function releases the pool.
func CreateArchiveService(
	archive event.Archive,
	metrics *observability.Metrics,
	logger *slog.Logger,
	cfg *config.Config,
) (service.ArchiveService, func()) {
	baseService := service.NewArchiveService(archive, metrics, logger.With("service", "archive"))

	workerPoolService, err := service.NewWorkerPoolArchiveService(
		baseService,
		service.WorkerPoolConfig{
			Size: cfg.WorkerPool.Size,
		},
		logger.With("component", "worker_pool"),
	)
	if err != nil {
		logger.Error("Failed to create worker pool service, falling back to base service", "error", err)
		return baseService, func() {}
	}

	logger.Info("Created worker pool archive service", "pool_size", cfg.WorkerPool.Size)
	return workerPoolService, workerPoolService.Shutdown
}

// CreateOutboxPoller creates the outbox relay publishing through a circuit breaker
func CreateOutboxPoller(
	outboxRepo outbox.Repository,
	producer producers.MessagePublisher,
	deadLetters producers.DeadLetterPublisher,
	metrics *observability.Metrics,
	logger *slog.Logger,
	cfg *config.Config,
) *outbox_poller.Poller {
	breaker := resilience.NewCircuitBreaker(RelayBreakerName, resilience.BreakerSettings{}, logger, metrics)
	publisher := outbox_poller.NewEventPublisher(outboxRepo, producer, breaker, logger.With("component", "event_publisher"))

	return outbox_poller.NewPoller(&cfg.Outbox, outboxRepo, publisher, deadLetters, metrics, logger.With("component", "outbox_poller"))
}
