package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/cash-register-ledger/internal/clock"
	"github.com/cash-register-ledger/internal/config"
	"github.com/cash-register-ledger/internal/data/mongo"
	"github.com/cash-register-ledger/internal/data/postgres"
	"github.com/cash-register-ledger/internal/event_processor/components"
	"github.com/cash-register-ledger/internal/event_processor/consumer"
	"github.com/cash-register-ledger/internal/logger"
	"github.com/cash-register-ledger/internal/platform/messaging/consumers"
	"github.com/cash-register-ledger/internal/platform/messaging/producers"
	"github.com/cash-register-ledger/internal/platform/observability"
	"github.com/cash-register-ledger/internal/platform/persistence"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("event_processor")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	metrics := observability.NewMetrics()

	log.Info("Starting ledger event processor",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	if cfg.Storage.Driver != config.StorageDriverPostgres {
		log.Error("Event processor relays the PostgreSQL outbox and requires STORAGE_DRIVER=postgres",
			"storage", cfg.Storage.Driver,
		)
		os.Exit(1)
	}

	// Initialize databases with app context
	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	location := clock.FixedZone(cfg.Business.UTCOffset())
	outboxRepo := postgres.NewUnitOfWork(log.With("store", "postgres"), postgresDB.Pool(), location).Reader().Outbox()

	archive := mongo.NewEventArchive(log.With("store", "mongo"), mongoDB.Database())
	if err := archive.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to ensure event archive indexes", "error", err)
		os.Exit(1)
	}

	eventProducer, err := producers.NewLedgerEventProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize ledger event producer", "error", err)
		os.Exit(1)
	}

	// dlqProducer is nil when no DLQ topic is configured; publishing then reports ErrDLQDisabled
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}

	poller := components.CreateOutboxPoller(outboxRepo, eventProducer, dlqProducer, metrics, log, cfg)

	archiveService, shutdownPool := components.CreateArchiveService(archive, metrics, log, cfg)
	archiveHandler := consumer.NewEventArchiveHandler(log, archiveService, dlqProducer, metrics)
	kafkaConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka)

	var metricsServer *http.Server
	if cfg.Metrics.Enabled {
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{}))
		metricsServer = &http.Server{
			Addr:              fmt.Sprintf(":%d", cfg.Metrics.Port),
			Handler:           mux,
			ReadHeaderTimeout: 5 * time.Second,
		}
	}

	group, groupCtx := errgroup.WithContext(appCtx)

	group.Go(func() error {
		log.Info("Starting outbox poller",
			"interval", cfg.Outbox.PollingInterval.String(),
			"batch_size", cfg.Outbox.BatchSize,
		)
		poller.Start(groupCtx)
		return nil
	})

	group.Go(func() error {
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.EventTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Consume(groupCtx, archiveHandler.HandleMessage); err != nil {
			return fmt.Errorf("kafka consumer error: %w", err)
		}
		return nil
	})

	if metricsServer != nil {
		group.Go(func() error {
			log.Info("Starting metrics server", "port", cfg.Metrics.Port)
			if err := metricsServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server error: %w", err)
			}
			return nil
		})
	}

	group.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
		defer signal.Stop(quit)

		select {
		case <-quit:
			log.Info("Shutdown signal received")
			cancelAppCtx()
		case <-groupCtx.Done():
		}

		if metricsServer == nil {
			return nil
		}
		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancelShutdown()
		return metricsServer.Shutdown(shutdownCtx)
	})

	serviceErr := group.Wait()

	// Graceful shutdown sequence
	log.Info("Starting graceful shutdown...")
	shutdownPool()

	if err := kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}
	if err := eventProducer.Close(); err != nil {
		log.Error("Error closing ledger event producer", "error", err)
	}
	if err := dlqProducer.Close(); err != nil {
		log.Error("Error closing DLQ Kafka producer", "error", err)
	}

	postgresDB.Close()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
	defer cancelShutdown()
	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serviceErr != nil {
		log.Error("Event processor shutdown completed with errors", "error", serviceErr)
		os.Exit(1)
	}
	log.Info("Event processor shutdown completed successfully")
}
