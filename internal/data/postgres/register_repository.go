package postgres

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/cash-register-ledger/internal/domain/register"
	"github.com/cash-register-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

const registerColumns = `id, date, opening_balance, final_balance, status, opened_by, COALESCE(closed_by, ''), closed_at, created_at, updated_at`

// RegisterRepository implements the register.Repository interface for PostgreSQL.
// The date column is a DATE; values read back are re-anchored to loc.
type RegisterRepository struct {
	querier persistence.Querier
	logger  *slog.Logger
	loc     *time.Location
}

// NewRegisterRepository creates a new PostgreSQL register repository
func NewRegisterRepository(logger *slog.Logger, querier persistence.Querier, loc *time.Location) *RegisterRepository {
	return &RegisterRepository{
		querier: querier,
		logger:  logger,
		loc:     loc,
	}
}

// WithTx returns a repository bound to tx
func (r *RegisterRepository) WithTx(tx pgx.Tx) *RegisterRepository {
	return &RegisterRepository{
		querier: tx,
		logger:  r.logger,
		loc:     r.loc,
	}
}

// CreateIfAbsent inserts the register unless its date is taken, then reads the
// stored row. A concurrent insert for the same date resolves to the winner's row.
func (r *RegisterRepository) CreateIfAbsent(ctx context.Context, reg *register.Register) (*register.Register, bool, error) {
	query := `
		INSERT INTO daily_reports (id, date, opening_balance, status, opened_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (date) DO NOTHING
	`

	result, err := r.querier.Exec(ctx, query,
		reg.ID,
		reg.Date,
		reg.OpeningBalance,
		reg.Status,
		reg.OpenedBy,
		reg.CreatedAt,
		reg.UpdatedAt,
	)
	if err != nil {
		r.logger.Error("Failed to create register", "date", reg.Date.Format("2006-01-02"), "error", err)
		return nil, false, fmt.Errorf("failed to create register: %w", err)
	}
	created := result.RowsAffected() == 1

	stored, err := r.GetByDate(ctx, reg.Date)
	if err != nil {
		return nil, false, err
	}
	return stored, created, nil
}

// GetByDate retrieves the register of a business day
func (r *RegisterRepository) GetByDate(ctx context.Context, day time.Time) (*register.Register, error) {
	query := `SELECT ` + registerColumns + ` FROM daily_reports WHERE date = $1`
	return r.getOne(ctx, query, day, "Failed to get register", "failed to get register")
}

// LockByDate retrieves the register holding a share or update row lock
func (r *RegisterRepository) LockByDate(ctx context.Context, day time.Time, mode register.LockMode) (*register.Register, error) {
	query := `SELECT ` + registerColumns + ` FROM daily_reports WHERE date = $1 FOR SHARE`
	if mode == register.LockUpdate {
		query = `SELECT ` + registerColumns + ` FROM daily_reports WHERE date = $1 FOR UPDATE`
	}
	return r.getOne(ctx, query, day, "Failed to lock register", "failed to lock register")
}

func (r *RegisterRepository) getOne(ctx context.Context, query string, day time.Time, logMsg, errMsg string) (*register.Register, error) {
	var reg register.Register
	err := r.querier.QueryRow(ctx, query, day).Scan(
		&reg.ID,
		&reg.Date,
		&reg.OpeningBalance,
		&reg.FinalBalance,
		&reg.Status,
		&reg.OpenedBy,
		&reg.ClosedBy,
		&reg.ClosedAt,
		&reg.CreatedAt,
		&reg.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, register.ErrRegisterNotFound{Date: day}
		}
		r.logger.Error(logMsg, "date", day.Format("2006-01-02"), "error", err)
		return nil, fmt.Errorf("%s: %w", errMsg, err)
	}

	reg.Date = time.Date(reg.Date.Year(), reg.Date.Month(), reg.Date.Day(), 0, 0, 0, 0, r.loc)
	return &reg, nil
}

// Update persists the status and closing fields of a register
func (r *RegisterRepository) Update(ctx context.Context, reg *register.Register) error {
	query := `
		UPDATE daily_reports
		SET status = $1, final_balance = $2, closed_by = NULLIF($3, ''), closed_at = $4, updated_at = $5
		WHERE id = $6
	`

	result, err := r.querier.Exec(ctx, query,
		reg.Status,
		reg.FinalBalance,
		reg.ClosedBy,
		reg.ClosedAt,
		reg.UpdatedAt,
		reg.ID,
	)
	if err != nil {
		r.logger.Error("Failed to update register", "id", reg.ID.String(), "error", err)
		return fmt.Errorf("failed to update register: %w", err)
	}

	if result.RowsAffected() == 0 {
		return register.ErrRegisterNotFound{Date: reg.Date}
	}

	return nil
}
