package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/cash-register-ledger/internal/api_server"
	"github.com/cash-register-ledger/internal/clock"
	"github.com/cash-register-ledger/internal/config"
	"github.com/cash-register-ledger/internal/data/memory"
	"github.com/cash-register-ledger/internal/data/mongo"
	"github.com/cash-register-ledger/internal/data/postgres"
	"github.com/cash-register-ledger/internal/data/redis"
	"github.com/cash-register-ledger/internal/domain/store"
	"github.com/cash-register-ledger/internal/ledger/components"
	"github.com/cash-register-ledger/internal/logger"
	"github.com/cash-register-ledger/internal/platform/locking"
	"github.com/cash-register-ledger/internal/platform/observability"
	"github.com/cash-register-ledger/internal/platform/persistence"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"
)

func main() {
	// Create base context with cancellation
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	// Initialize configuration
	cfg, err := config.LoadConfig("api_server")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	metrics := observability.NewMetrics()
	businessClock := clock.NewFixedOffsetClock(cfg.Business.UTCOffset())

	log.Info("Starting cash register API",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"storage", cfg.Storage.Driver,
		"utc_offset_hours", cfg.Business.UTCOffsetHours,
	)

	var (
		unitOfWork store.UnitOfWork
		postgresDB *persistence.PostgresDB
	)
	switch cfg.Storage.Driver {
	case config.StorageDriverPostgres:
		postgresDB, err = persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
		if err != nil {
			log.Error("Failed to initialize PostgreSQL", "error", err)
			os.Exit(1)
		}
		unitOfWork = postgres.NewUnitOfWork(log.With("store", "postgres"), postgresDB.Pool(), businessClock.Location())
	default:
		log.Warn("Using in-memory storage, data is lost on restart")
		unitOfWork = memory.New()
	}

	deps := components.Dependencies{
		UnitOfWork: unitOfWork,
		Clock:      businessClock,
		Metrics:    metrics,
		Config:     cfg,
		Logger:     log,
	}

	var redisClient *goredis.Client
	if cfg.Redis.Enabled {
		redisClient, err = persistence.NewRedisClient(appCtx, log, &cfg.Redis)
		if err != nil {
			log.Error("Failed to initialize Redis", "error", err)
			os.Exit(1)
		}
		deps.CompanyCache = redis.NewCompanyCache(log.With("cache", "companies"), redisClient, cfg.Redis.CacheTTL)
		deps.Locker = locking.NewRedisLocker(log.With("component", "settlement_lock"), redisClient, cfg.Redis.LockTTL, cfg.Redis.LockWait)
	}

	// The archive only backs the events endpoint, so the API keeps serving without it
	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Warn("MongoDB unavailable, event archive queries disabled", "error", err)
		mongoDB = nil
	} else {
		deps.Archive = mongo.NewEventArchive(log.With("store", "mongo"), mongoDB.Database())
	}

	services := components.CreateLedgerServices(deps)

	server := api_server.NewServer(log, cfg, services, metrics)
	log.Info("REST server initialized")

	group, groupCtx := errgroup.WithContext(appCtx)

	group.Go(func() error {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	group.Go(func() error {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
		defer signal.Stop(quit)

		select {
		case <-quit:
			log.Info("Shutdown signal received")
		case <-groupCtx.Done():
		}

		shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancelShutdown()

		log.Info("Starting graceful shutdown...")
		return server.Stop(shutdownCtx)
	})

	serverErr := group.Wait()
	cancelAppCtx()

	closeResources(log, postgresDB, mongoDB, redisClient, cfg)

	if serverErr != nil {
		log.Error("Server shutdown completed with errors", "error", serverErr)
		os.Exit(1)
	}
	log.Info("Server shutdown completed successfully")
}

func closeResources(log *slog.Logger, postgresDB *persistence.PostgresDB, mongoDB *persistence.MongoDB, redisClient *goredis.Client, cfg *config.Config) {
	if postgresDB != nil {
		postgresDB.Close()
	}

	if redisClient != nil {
		if err := redisClient.Close(); err != nil {
			log.Error("Error closing Redis client", "error", err)
		}
	}

	if mongoDB != nil {
		ctx, cancel := context.WithTimeout(context.Background(), cfg.MongoDB.Timeout)
		defer cancel()
		if err := mongoDB.Close(ctx); err != nil {
			log.Error("Error closing MongoDB connection", "error", err)
		}
	}
}
