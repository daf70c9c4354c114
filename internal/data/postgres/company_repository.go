// Package postgres provides PostgreSQL implementations of the domain repositories.
// Every repository can be bound to a transaction with WithTx so that the unit of
// work commits all writes of an operation together.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cash-register-ledger/internal/domain/company"
	"github.com/cash-register-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const companyColumns = `id, name, price_unit, billing_type, active, created_at, updated_at`

// CompanyRepository implements the company.Repository interface for PostgreSQL
type CompanyRepository struct {
	querier persistence.Querier // Can be *pgxpool.Pool or pgx.Tx
	logger  *slog.Logger
}

// NewCompanyRepository creates a new PostgreSQL company repository
func NewCompanyRepository(logger *slog.Logger, querier persistence.Querier) *CompanyRepository {
	return &CompanyRepository{
		querier: querier,
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *CompanyRepository) WithTx(tx pgx.Tx) *CompanyRepository {
	return &CompanyRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new company
func (r *CompanyRepository) Create(ctx context.Context, c *company.Company) error {
	query := `
		INSERT INTO companies (id, name, price_unit, billing_type, active, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.querier.Exec(ctx, query,
		c.ID,
		c.Name,
		c.PriceUnit,
		c.BillingType,
		c.Active,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create company", "error", err)
		return fmt.Errorf("failed to create company: %w", err)
	}

	return nil
}

// GetByID retrieves a company by its ID
func (r *CompanyRepository) GetByID(ctx context.Context, id uuid.UUID) (*company.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1`
	return r.getOne(ctx, query, id, "Failed to get company", "failed to get company")
}

// LockForUpdate returns the company while holding its row lock until the
// transaction ends. Settlements for the same company queue behind it.
func (r *CompanyRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*company.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE id = $1 FOR UPDATE`
	return r.getOne(ctx, query, id, "Failed to lock company for update", "failed to lock company for update")
}

func (r *CompanyRepository) getOne(ctx context.Context, query string, id uuid.UUID, logMsg, errMsg string) (*company.Company, error) {
	var c company.Company
	err := r.querier.QueryRow(ctx, query, id).Scan(
		&c.ID,
		&c.Name,
		&c.PriceUnit,
		&c.BillingType,
		&c.Active,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, company.ErrCompanyNotFound{CompanyID: id}
		}
		r.logger.Error(logMsg, "id", id.String(), "error", err)
		return nil, fmt.Errorf("%s: %w", errMsg, err)
	}

	return &c, nil
}

// ListActive returns active companies ordered by name
func (r *CompanyRepository) ListActive(ctx context.Context) ([]*company.Company, error) {
	query := `SELECT ` + companyColumns + ` FROM companies WHERE active = TRUE ORDER BY name ASC`

	rows, err := r.querier.Query(ctx, query)
	if err != nil {
		r.logger.Error("Failed to list active companies", "error", err)
		return nil, fmt.Errorf("failed to list active companies: %w", err)
	}
	defer rows.Close()

	companies := make([]*company.Company, 0)
	for rows.Next() {
		var c company.Company
		if err := rows.Scan(
			&c.ID,
			&c.Name,
			&c.PriceUnit,
			&c.BillingType,
			&c.Active,
			&c.CreatedAt,
			&c.UpdatedAt,
		); err != nil {
			r.logger.Error("Failed to scan company", "error", err)
			return nil, fmt.Errorf("failed to scan company: %w", err)
		}
		companies = append(companies, &c)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating companies", "error", err)
		return nil, fmt.Errorf("error iterating companies: %w", err)
	}

	return companies, nil
}

// Update persists name, price, billing type and activity of an existing company
func (r *CompanyRepository) Update(ctx context.Context, c *company.Company) error {
	query := `
		UPDATE companies
		SET name = $1, price_unit = $2, billing_type = $3, active = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := r.querier.Exec(ctx, query,
		c.Name,
		c.PriceUnit,
		c.BillingType,
		c.Active,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update company", "id", c.ID.String(), "error", err)
		return fmt.Errorf("failed to update company: %w", err)
	}

	if result.RowsAffected() == 0 {
		return company.ErrCompanyNotFound{CompanyID: c.ID}
	}

	return nil
}
