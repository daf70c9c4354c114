// Package redis caches read-mostly company lookups. A nil *CompanyCache is valid and
// caches nothing, so callers never branch on whether Redis is enabled.
package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cash-register-ledger/internal/domain/company"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const activeCompaniesKey = "companies:active"

func companyKey(id uuid.UUID) string {
	return "company:" + id.String()
}

// CompanyCache stores companies and the active company list as JSON with a TTL
type CompanyCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *slog.Logger
}

func NewCompanyCache(logger *slog.Logger, client *redis.Client, ttl time.Duration) *CompanyCache {
	return &CompanyCache{
		client: client,
		ttl:    ttl,
		logger: logger,
	}
}

// Get returns the cached company. found is false on a cache miss.
func (c *CompanyCache) Get(ctx context.Context, id uuid.UUID) (*company.Company, bool, error) {
	var cached company.Company
	found, err := c.getObject(ctx, companyKey(id), &cached)
	if err != nil || !found {
		return nil, found, err
	}
	return &cached, true, nil
}

func (c *CompanyCache) Set(ctx context.Context, cmp *company.Company) error {
	return c.setObject(ctx, companyKey(cmp.ID), cmp)
}

// GetActive returns the cached active company list
func (c *CompanyCache) GetActive(ctx context.Context) ([]*company.Company, bool, error) {
	var cached []*company.Company
	found, err := c.getObject(ctx, activeCompaniesKey, &cached)
	if err != nil || !found {
		return nil, found, err
	}
	return cached, true, nil
}

func (c *CompanyCache) SetActive(ctx context.Context, companies []*company.Company) error {
	return c.setObject(ctx, activeCompaniesKey, companies)
}

// Invalidate drops the company entry and the active list it may appear in
func (c *CompanyCache) Invalidate(ctx context.Context, id uuid.UUID) error {
	if c == nil {
		return nil
	}
	if err := c.client.Del(ctx, companyKey(id), activeCompaniesKey).Err(); err != nil {
		c.logger.Error("Failed to invalidate cached company", "company_id", id.String(), "error", err)
		return fmt.Errorf("failed to invalidate cached company: %w", err)
	}
	return nil
}

func (c *CompanyCache) getObject(ctx context.Context, key string, dest interface{}) (bool, error) {
	if c == nil {
		return false, nil
	}
	val, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return false, nil
		}
		c.logger.Error("Failed to read cache entry", "key", key, "error", err)
		return false, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}
	if err := json.Unmarshal(val, dest); err != nil {
		c.logger.Warn("Discarding undecodable cache entry", "key", key, "error", err)
		_ = c.client.Del(ctx, key).Err()
		return false, nil
	}
	return true, nil
}

func (c *CompanyCache) setObject(ctx context.Context, key string, obj interface{}) error {
	if c == nil {
		return nil
	}
	body, err := json.Marshal(obj)
	if err != nil {
		return fmt.Errorf("failed to encode cache entry %s: %w", key, err)
	}
	if err := c.client.Set(ctx, key, body, c.ttl).Err(); err != nil {
		c.logger.Error("Failed to write cache entry", "key", key, "error", err)
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}
