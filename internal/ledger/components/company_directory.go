package components

import (
	"context"
	"log/slog"

	"github.com/cash-register-ledger/internal/domain/company"
	"github.com/cash-register-ledger/internal/domain/store"
	"github.com/cash-register-ledger/internal/ledger/service"
	"github.com/google/uuid"
)

const companyCacheName = "company"

// CompanyCache is a best-effort store of company snapshots
type CompanyCache interface {
	Get(ctx context.Context, id uuid.UUID) (*company.Company, bool, error)
	Set(ctx context.Context, c *company.Company) error
	GetActive(ctx context.Context) ([]*company.Company, bool, error)
	SetActive(ctx context.Context, companies []*company.Company) error
	Invalidate(ctx context.Context, id uuid.UUID) error
}

// CacheMetrics counts cache lookups by outcome
type CacheMetrics interface {
	IncrCacheHit(cache string)
	IncrCacheMiss(cache string)
}

// CompanyDirectoryImpl reads companies through the cache. Cache failures degrade to
// database reads and are never returned to the caller.
type CompanyDirectoryImpl struct {
	uow     store.UnitOfWork
	cache   CompanyCache
	metrics CacheMetrics
	logger  *slog.Logger
}

// NewCompanyDirectory creates a directory. A nil cache reads straight from the database.
func NewCompanyDirectory(uow store.UnitOfWork, cache CompanyCache, metrics CacheMetrics, logger *slog.Logger) service.CompanyDirectory {
	return &CompanyDirectoryImpl{
		uow:     uow,
		cache:   cache,
		metrics: metrics,
		logger:  logger,
	}
}

func (d *CompanyDirectoryImpl) Get(ctx context.Context, id uuid.UUID) (*company.Company, error) {
	if d.cache != nil {
		c, ok, err := d.cache.Get(ctx, id)
		switch {
		case err != nil:
			d.logger.Warn("Company cache read failed, falling back to database", "company_id", id.String(), "error", err)
		case ok:
			d.metrics.IncrCacheHit(companyCacheName)
			return c, nil
		default:
			d.metrics.IncrCacheMiss(companyCacheName)
		}
	}

	c, err := d.uow.Reader().Companies().GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if d.cache != nil {
		if err := d.cache.Set(ctx, c); err != nil {
			d.logger.Warn("Failed to cache company", "company_id", id.String(), "error", err)
		}
	}
	return c, nil
}

func (d *CompanyDirectoryImpl) ListActive(ctx context.Context) ([]*company.Company, error) {
	if d.cache != nil {
		companies, ok, err := d.cache.GetActive(ctx)
		switch {
		case err != nil:
			d.logger.Warn("Active company cache read failed, falling back to database", "error", err)
		case ok:
			d.metrics.IncrCacheHit(companyCacheName)
			return companies, nil
		default:
			d.metrics.IncrCacheMiss(companyCacheName)
		}
	}

	companies, err := d.uow.Reader().Companies().ListActive(ctx)
	if err != nil {
		return nil, err
	}

	if d.cache != nil {
		if err := d.cache.SetActive(ctx, companies); err != nil {
			d.logger.Warn("Failed to cache active companies", "error", err)
		}
	}
	return companies, nil
}

// Invalidate drops the company and the active list after a committed change
func (d *CompanyDirectoryImpl) Invalidate(ctx context.Context, id uuid.UUID) {
	if d.cache == nil {
		return
	}
	if err := d.cache.Invalidate(ctx, id); err != nil {
		d.logger.Warn("Failed to invalidate company cache", "company_id", id.String(), "error", err)
	}
}
