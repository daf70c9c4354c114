package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/cash-register-ledger/internal/domain/closing"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/cash-register-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

const closingColumns = `id, company_id, total_amount, start_date, end_date, movement_count, created_by, created_at`

// ClosingRepository implements the closing.Repository interface for PostgreSQL
type ClosingRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewClosingRepository creates a new PostgreSQL closing repository
func NewClosingRepository(logger *slog.Logger, querier persistence.Querier) *ClosingRepository {
	return &ClosingRepository{
		querier: querier,
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *ClosingRepository) WithTx(tx pgx.Tx) *ClosingRepository {
	return &ClosingRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a new closing. Closings are never updated afterwards.
func (r *ClosingRepository) Create(ctx context.Context, c *closing.Closing) error {
	query := `
		INSERT INTO closings (id, company_id, total_amount, start_date, end_date, movement_count, created_by, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	_, err := r.querier.Exec(ctx, query,
		c.ID,
		c.CompanyID,
		c.TotalAmount,
		c.StartDate,
		c.EndDate,
		c.MovementCount,
		c.CreatedBy,
		c.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create closing", "company_id", c.CompanyID.String(), "error", err)
		return fmt.Errorf("failed to create closing: %w", err)
	}

	return nil
}

// GetByID retrieves a closing by its ID
func (r *ClosingRepository) GetByID(ctx context.Context, id uuid.UUID) (*closing.Closing, error) {
	query := `SELECT ` + closingColumns + ` FROM closings WHERE id = $1`

	c, err := scanClosing(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, closing.ErrClosingNotFound{ClosingID: id}
		}
		r.logger.Error("Failed to get closing", "id", id.String(), "error", err)
		return nil, fmt.Errorf("failed to get closing: %w", err)
	}

	return c, nil
}

// List returns closings newest first
func (r *ClosingRepository) List(ctx context.Context, companyID *uuid.UUID) ([]*closing.Closing, error) {
	query := `SELECT ` + closingColumns + ` FROM closings`
	var args []interface{}
	if companyID != nil {
		query += ` WHERE company_id = $1`
		args = append(args, *companyID)
	}
	query += ` ORDER BY created_at DESC, id DESC`

	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to list closings", "error", err)
		return nil, fmt.Errorf("failed to list closings: %w", err)
	}
	defer rows.Close()

	closings := make([]*closing.Closing, 0)
	for rows.Next() {
		c, err := scanClosing(rows)
		if err != nil {
			r.logger.Error("Failed to scan closing", "error", err)
			return nil, fmt.Errorf("failed to scan closing: %w", err)
		}
		closings = append(closings, c)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating closings", "error", err)
		return nil, fmt.Errorf("error iterating closings: %w", err)
	}

	return closings, nil
}

// AgreementTotals groups agreement movements by company in the database
func (r *ClosingRepository) AgreementTotals(ctx context.Context, filter closing.TotalsFilter) ([]*closing.CompanyTotal, error) {
	var sb strings.Builder
	sb.WriteString(`
		SELECT m.company_id, COUNT(*), COALESCE(SUM(m.amount), 0), COALESCE(SUM(m.quantity), 0), MIN(m.created_at)
		FROM movements m
		WHERE m.type = $1 AND m.company_id IS NOT NULL AND m.created_at < $2`)
	args := []interface{}{shared.MovementTypeIncomeAgreement, filter.To}

	if filter.From != nil {
		args = append(args, *filter.From)
		sb.WriteString(` AND m.created_at >= $` + strconv.Itoa(len(args)))
	}
	if filter.CompanyID != nil {
		args = append(args, *filter.CompanyID)
		sb.WriteString(` AND m.company_id = $` + strconv.Itoa(len(args)))
	}
	if filter.OpenOnly {
		sb.WriteString(` AND m.closing_id IS NULL`)
	}
	sb.WriteString(`
		GROUP BY m.company_id
		ORDER BY MIN(m.created_at) ASC, m.company_id ASC`)

	rows, err := r.querier.Query(ctx, sb.String(), args...)
	if err != nil {
		r.logger.Error("Failed to aggregate agreement totals", "error", err)
		return nil, fmt.Errorf("failed to aggregate agreement totals: %w", err)
	}
	defer rows.Close()

	totals := make([]*closing.CompanyTotal, 0)
	for rows.Next() {
		var t closing.CompanyTotal
		if err := rows.Scan(
			&t.CompanyID,
			&t.MovementCount,
			&t.TotalAmount,
			&t.TotalQuantity,
			&t.EarliestAt,
		); err != nil {
			r.logger.Error("Failed to scan agreement total", "error", err)
			return nil, fmt.Errorf("failed to scan agreement total: %w", err)
		}
		totals = append(totals, &t)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating agreement totals", "error", err)
		return nil, fmt.Errorf("error iterating agreement totals: %w", err)
	}

	return totals, nil
}

func scanClosing(row pgx.Row) (*closing.Closing, error) {
	var c closing.Closing
	err := row.Scan(
		&c.ID,
		&c.CompanyID,
		&c.TotalAmount,
		&c.StartDate,
		&c.EndDate,
		&c.MovementCount,
		&c.CreatedBy,
		&c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}
