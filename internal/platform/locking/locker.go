// Package locking serializes settlements of the same company across API instances.
// The database row lock remains authoritative; the distributed lock only turns a
// second concurrent settlement into a fast, explicit rejection.
package locking

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/bsm/redislock"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"github.com/cash-register-ledger/internal/domain/closing"
)

const retryStep = 100 * time.Millisecond

// SettlementLocker guards the settlement of one company
type SettlementLocker interface {
	// Lock returns a release function once the company's lock is held.
	// It returns closing.ErrSettlementInProgress when the lock stays busy.
	Lock(ctx context.Context, companyID uuid.UUID) (release func(), err error)
}

// SettlementKey is the lock key of a company's settlement
func SettlementKey(companyID uuid.UUID) string {
	return "settlement:" + companyID.String()
}

// RedisLocker implements SettlementLocker with redislock
type RedisLocker struct {
	client *redislock.Client
	ttl    time.Duration
	wait   time.Duration
	logger *slog.Logger
}

// NewRedisLocker creates a locker whose locks expire after ttl. Callers wait up to
// wait for a busy lock before giving up.
func NewRedisLocker(logger *slog.Logger, rdb redis.Scripter, ttl, wait time.Duration) *RedisLocker {
	return &RedisLocker{
		client: redislock.New(rdb),
		ttl:    ttl,
		wait:   wait,
		logger: logger,
	}
}

func (l *RedisLocker) retryStrategy() redislock.RetryStrategy {
	attempts := int(l.wait / retryStep)
	if attempts <= 0 {
		return redislock.NoRetry()
	}
	return redislock.LimitRetry(redislock.LinearBackoff(retryStep), attempts)
}

func (l *RedisLocker) Lock(ctx context.Context, companyID uuid.UUID) (func(), error) {
	key := SettlementKey(companyID)

	lock, err := l.client.Obtain(ctx, key, l.ttl, &redislock.Options{RetryStrategy: l.retryStrategy()})
	if err != nil {
		if errors.Is(err, redislock.ErrNotObtained) {
			l.logger.Warn("Settlement already in progress", "company_id", companyID.String())
			return nil, closing.ErrSettlementInProgress
		}
		l.logger.Error("Failed to obtain settlement lock", "company_id", companyID.String(), "error", err)
		return nil, fmt.Errorf("failed to obtain settlement lock: %w", err)
	}

	release := func() {
		// Release must still happen when the request context is already cancelled
		if err := lock.Release(context.WithoutCancel(ctx)); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
			l.logger.Warn("Failed to release settlement lock", "company_id", companyID.String(), "error", err)
		}
	}
	return release, nil
}

// NoopLocker is used when Redis is disabled; the database lock alone serializes settlements
type NoopLocker struct{}

func (NoopLocker) Lock(context.Context, uuid.UUID) (func(), error) {
	return func() {}, nil
}
