package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/cash-register-ledger/internal/domain/movement"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/cash-register-ledger/internal/platform/persistence"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

// Company name is joined in for display. Item category is nullable in storage.
const movementSelect = `
		SELECT m.id, m.report_id, m.type, m.company_id, COALESCE(c.name, ''), COALESCE(m.item_category, ''),
			m.consumer, m.description, m.quantity, m.amount, m.unit_value, m.closing_id, m.user_id, m.created_at
		FROM movements m
		LEFT JOIN companies c ON c.id = m.company_id`

// MovementRepository implements the movement.Repository interface for PostgreSQL
type MovementRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
}

// NewMovementRepository creates a new PostgreSQL movement repository
func NewMovementRepository(logger *slog.Logger, querier persistence.Querier) *MovementRepository {
	return &MovementRepository{
		querier: querier,
		logger:  logger,
	}
}

// WithTx returns a repository bound to tx
func (r *MovementRepository) WithTx(tx pgx.Tx) *MovementRepository {
	return &MovementRepository{
		querier: tx,
		logger:  r.logger,
	}
}

// Create stores a priced movement
func (r *MovementRepository) Create(ctx context.Context, m *movement.Movement) error {
	query := `
		INSERT INTO movements (id, report_id, type, company_id, item_category, consumer, description,
			quantity, amount, unit_value, closing_id, user_id, created_at)
		VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.querier.Exec(ctx, query,
		m.ID,
		m.ReportID,
		m.Type,
		m.CompanyID,
		string(m.ItemCategory),
		m.Consumer,
		m.Description,
		m.Quantity,
		m.Amount,
		m.UnitValue,
		m.ClosingID,
		m.UserID,
		m.CreatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create movement", "report_id", m.ReportID.String(), "error", err)
		return fmt.Errorf("failed to create movement: %w", err)
	}

	return nil
}

// GetByID retrieves a movement by its ID
func (r *MovementRepository) GetByID(ctx context.Context, id uuid.UUID) (*movement.Movement, error) {
	query := movementSelect + ` WHERE m.id = $1`
	return r.getOne(ctx, query, id, "Failed to get movement", "failed to get movement")
}

// LockForUpdate retrieves a movement and locks its row until the transaction ends
func (r *MovementRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*movement.Movement, error) {
	query := movementSelect + ` WHERE m.id = $1 FOR UPDATE OF m`
	return r.getOne(ctx, query, id, "Failed to lock movement", "failed to lock movement")
}

func (r *MovementRepository) getOne(ctx context.Context, query string, id uuid.UUID, logMsg, errMsg string) (*movement.Movement, error) {
	m, err := scanMovement(r.querier.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, movement.ErrMovementNotFound{MovementID: id}
		}
		r.logger.Error(logMsg, "id", id.String(), "error", err)
		return nil, fmt.Errorf("%s: %w", errMsg, err)
	}
	return m, nil
}

// Delete removes an unsettled movement
func (r *MovementRepository) Delete(ctx context.Context, id uuid.UUID) error {
	query := `DELETE FROM movements WHERE id = $1 AND closing_id IS NULL`

	result, err := r.querier.Exec(ctx, query, id)
	if err != nil {
		r.logger.Error("Failed to delete movement", "id", id.String(), "error", err)
		return fmt.Errorf("failed to delete movement: %w", err)
	}

	if result.RowsAffected() == 0 {
		return movement.ErrMovementNotFound{MovementID: id}
	}

	return nil
}

// ListByReport returns a register's movements newest first
func (r *MovementRepository) ListByReport(ctx context.Context, reportID uuid.UUID, limit int) ([]*movement.Movement, error) {
	query := movementSelect + ` WHERE m.report_id = $1 ORDER BY m.created_at DESC, m.id DESC`
	args := []interface{}{reportID}
	if limit > 0 {
		query += ` LIMIT $2`
		args = append(args, limit)
	}
	return r.list(ctx, "list movements by report", query, args...)
}

// ListByPeriod returns movements created within [From, To), newest first
func (r *MovementRepository) ListByPeriod(ctx context.Context, filter movement.PeriodFilter) ([]*movement.Movement, error) {
	var sb strings.Builder
	sb.WriteString(movementSelect)
	sb.WriteString(` WHERE m.created_at >= $1 AND m.created_at < $2`)
	args := []interface{}{filter.From, filter.To}
	if filter.CompanyID != nil {
		sb.WriteString(` AND m.company_id = $3`)
		args = append(args, *filter.CompanyID)
	}
	sb.WriteString(` ORDER BY m.created_at DESC, m.id DESC`)

	return r.list(ctx, "list movements by period", sb.String(), args...)
}

// ListOpenAgreements returns unsettled agreement movements of a company oldest first
func (r *MovementRepository) ListOpenAgreements(ctx context.Context, companyID uuid.UUID, cutoff *time.Time, forUpdate bool) ([]*movement.Movement, error) {
	var sb strings.Builder
	sb.WriteString(movementSelect)
	sb.WriteString(` WHERE m.type = $1 AND m.company_id = $2 AND m.closing_id IS NULL`)
	args := []interface{}{shared.MovementTypeIncomeAgreement, companyID}
	if cutoff != nil {
		sb.WriteString(` AND m.created_at < $3`)
		args = append(args, *cutoff)
	}
	sb.WriteString(` ORDER BY m.created_at ASC, m.id ASC`)
	if forUpdate {
		sb.WriteString(` FOR UPDATE OF m`)
	}

	return r.list(ctx, "list open agreement movements", sb.String(), args...)
}

// MarkSettled stamps closingID on still-unsettled movements and reports how many
// rows changed. Rows settled concurrently by another closing are left untouched.
func (r *MovementRepository) MarkSettled(ctx context.Context, closingID uuid.UUID, ids []uuid.UUID) (int64, error) {
	if len(ids) == 0 {
		return 0, nil
	}

	query := `UPDATE movements SET closing_id = $1 WHERE id = ANY($2::uuid[]) AND closing_id IS NULL`

	result, err := r.querier.Exec(ctx, query, closingID, ids)
	if err != nil {
		r.logger.Error("Failed to mark movements settled", "closing_id", closingID.String(), "error", err)
		return 0, fmt.Errorf("failed to mark movements settled: %w", err)
	}

	return result.RowsAffected(), nil
}

func (r *MovementRepository) list(ctx context.Context, op, query string, args ...interface{}) ([]*movement.Movement, error) {
	rows, err := r.querier.Query(ctx, query, args...)
	if err != nil {
		r.logger.Error("Failed to "+op, "error", err)
		return nil, fmt.Errorf("failed to %s: %w", op, err)
	}
	defer rows.Close()

	movements := make([]*movement.Movement, 0)
	for rows.Next() {
		m, err := scanMovement(rows)
		if err != nil {
			r.logger.Error("Failed to scan movement", "error", err)
			return nil, fmt.Errorf("failed to scan movement: %w", err)
		}
		movements = append(movements, m)
	}
	if err := rows.Err(); err != nil {
		r.logger.Error("Error iterating movements", "error", err)
		return nil, fmt.Errorf("error iterating movements: %w", err)
	}

	return movements, nil
}

func scanMovement(row pgx.Row) (*movement.Movement, error) {
	var m movement.Movement
	err := row.Scan(
		&m.ID,
		&m.ReportID,
		&m.Type,
		&m.CompanyID,
		&m.CompanyName,
		&m.ItemCategory,
		&m.Consumer,
		&m.Description,
		&m.Quantity,
		&m.Amount,
		&m.UnitValue,
		&m.ClosingID,
		&m.UserID,
		&m.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &m, nil
}
