package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/cash-register-ledger/internal/domain/movement"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var movementRowColumns = []string{
	"id", "report_id", "type", "company_id", "company_name", "item_category",
	"consumer", "description", "quantity", "amount", "unit_value", "closing_id", "user_id", "created_at",
}

func testAgreementMovement() *movement.Movement {
	companyID := uuid.New()
	return &movement.Movement{
		ID:           uuid.New(),
		ReportID:     uuid.New(),
		Type:         shared.MovementTypeIncomeAgreement,
		CompanyID:    &companyID,
		CompanyName:  "Acme Logistics",
		ItemCategory: shared.ItemCategoryMeal,
		Consumer:     "Carlos",
		Quantity:     2,
		Amount:       decimal.RequireFromString("37.00"),
		UnitValue:    decimal.NullDecimal{Decimal: decimal.RequireFromString("18.50"), Valid: true},
		UserID:       "maria",
		CreatedAt:    time.Date(2024, 3, 10, 12, 30, 0, 0, time.UTC),
	}
}

func addMovementRow(rows *pgxmock.Rows, m *movement.Movement) *pgxmock.Rows {
	var closingID interface{}
	if m.ClosingID != nil {
		closingID = m.ClosingID
	}
	var companyID interface{}
	if m.CompanyID != nil {
		companyID = m.CompanyID
	}
	return rows.AddRow(
		m.ID, m.ReportID, m.Type, companyID, m.CompanyName, m.ItemCategory,
		m.Consumer, m.Description, m.Quantity, m.Amount, m.UnitValue, closingID, m.UserID, m.CreatedAt,
	)
}

func TestMovementRepository_Create(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MovementRepository{querier: mock, logger: newTestLogger()}
	m := testAgreementMovement()
	query := regexp.QuoteMeta("VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, $7, $8, $9, $10, $11, $12, $13)")

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(m.ID, m.ReportID, m.Type, m.CompanyID, "MEAL", m.Consumer, m.Description,
				m.Quantity, m.Amount, m.UnitValue, m.ClosingID, m.UserID, m.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, repo.Create(ctx, m))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("counter movement sends empty category", func(t *testing.T) {
		cash := movement.New(uuid.New(), movement.Draft{
			Type:   shared.MovementTypeIncomeCash,
			Amount: decimal.RequireFromString("12.00"),
		}, "maria", time.Now())

		mock.ExpectExec(query).
			WithArgs(cash.ID, cash.ReportID, cash.Type, cash.CompanyID, "", cash.Consumer, cash.Description,
				cash.Quantity, cash.Amount, cash.UnitValue, cash.ClosingID, cash.UserID, cash.CreatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))

		assert.NoError(t, repo.Create(ctx, cash))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		dbErr := errors.New("check constraint violated")
		mock.ExpectExec(query).
			WithArgs(m.ID, m.ReportID, m.Type, m.CompanyID, "MEAL", m.Consumer, m.Description,
				m.Quantity, m.Amount, m.UnitValue, m.ClosingID, m.UserID, m.CreatedAt).
			WillReturnError(dbErr)

		err := repo.Create(ctx, m)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to create movement")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMovementRepository_GetByID(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MovementRepository{querier: mock, logger: newTestLogger()}
	expected := testAgreementMovement()
	query := regexp.QuoteMeta("LEFT JOIN companies c ON c.id = m.company_id WHERE m.id = $1")

	t.Run("success", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(expected.ID).
			WillReturnRows(addMovementRow(pgxmock.NewRows(movementRowColumns), expected))

		m, err := repo.GetByID(ctx, expected.ID)
		require.NoError(t, err)
		assert.Equal(t, expected, m)
		assert.False(t, m.IsSettled())
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(expected.ID).WillReturnError(pgx.ErrNoRows)

		m, err := repo.GetByID(ctx, expected.ID)
		assert.Nil(t, m)
		assert.ErrorIs(t, err, movement.ErrMovementNotFound{MovementID: expected.ID})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMovementRepository_LockForUpdate(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MovementRepository{querier: mock, logger: newTestLogger()}
	settled := testAgreementMovement()
	closingID := uuid.New()
	settled.ClosingID = &closingID

	mock.ExpectQuery(regexp.QuoteMeta("WHERE m.id = $1 FOR UPDATE OF m")).WithArgs(settled.ID).
		WillReturnRows(addMovementRow(pgxmock.NewRows(movementRowColumns), settled))

	m, err := repo.LockForUpdate(ctx, settled.ID)
	require.NoError(t, err)
	assert.True(t, m.IsSettled())
	assert.Equal(t, closingID, *m.ClosingID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMovementRepository_Delete(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MovementRepository{querier: mock, logger: newTestLogger()}
	id := uuid.New()
	query := regexp.QuoteMeta("DELETE FROM movements WHERE id = $1 AND closing_id IS NULL")

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 1))

		assert.NoError(t, repo.Delete(ctx, id))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing or settled", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(id).WillReturnResult(pgxmock.NewResult("DELETE", 0))

		err := repo.Delete(ctx, id)
		assert.ErrorIs(t, err, movement.ErrMovementNotFound{MovementID: id})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMovementRepository_ListByReport(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MovementRepository{querier: mock, logger: newTestLogger()}
	reportID := uuid.New()
	first, second := testAgreementMovement(), testAgreementMovement()
	first.ReportID, second.ReportID = reportID, reportID

	t.Run("limited", func(t *testing.T) {
		rows := addMovementRow(addMovementRow(pgxmock.NewRows(movementRowColumns), first), second)
		mock.ExpectQuery(regexp.QuoteMeta("WHERE m.report_id = $1 ORDER BY m.created_at DESC, m.id DESC LIMIT $2")).
			WithArgs(reportID, 5).
			WillReturnRows(rows)

		movements, err := repo.ListByReport(ctx, reportID, 5)
		require.NoError(t, err)
		assert.Len(t, movements, 2)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("unbounded", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("ORDER BY m.created_at DESC, m.id DESC")).
			WithArgs(reportID).
			WillReturnRows(pgxmock.NewRows(movementRowColumns))

		movements, err := repo.ListByReport(ctx, reportID, 0)
		require.NoError(t, err)
		assert.Empty(t, movements)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("query error", func(t *testing.T) {
		dbErr := errors.New("db error")
		mock.ExpectQuery(regexp.QuoteMeta("WHERE m.report_id = $1")).WithArgs(reportID, 5).WillReturnError(dbErr)

		movements, err := repo.ListByReport(ctx, reportID, 5)
		assert.Nil(t, movements)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to list movements by report")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMovementRepository_ListByPeriod(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MovementRepository{querier: mock, logger: newTestLogger()}
	from := time.Date(2024, 3, 1, 4, 0, 0, 0, time.UTC)
	to := time.Date(2024, 4, 1, 3, 59, 59, 0, time.UTC)

	t.Run("all companies", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("WHERE m.created_at >= $1 AND m.created_at < $2 ORDER BY")).
			WithArgs(from, to).
			WillReturnRows(addMovementRow(pgxmock.NewRows(movementRowColumns), testAgreementMovement()))

		movements, err := repo.ListByPeriod(ctx, movement.PeriodFilter{From: from, To: to})
		require.NoError(t, err)
		assert.Len(t, movements, 1)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("single company", func(t *testing.T) {
		companyID := uuid.New()
		mock.ExpectQuery(regexp.QuoteMeta("AND m.company_id = $3")).
			WithArgs(from, to, companyID).
			WillReturnRows(pgxmock.NewRows(movementRowColumns))

		movements, err := repo.ListByPeriod(ctx, movement.PeriodFilter{From: from, To: to, CompanyID: &companyID})
		require.NoError(t, err)
		assert.Empty(t, movements)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMovementRepository_ListOpenAgreements(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MovementRepository{querier: mock, logger: newTestLogger()}
	m := testAgreementMovement()
	cutoff := time.Date(2024, 3, 31, 23, 59, 59, 0, time.UTC)

	t.Run("locked with cutoff", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("AND m.closing_id IS NULL AND m.created_at < $3 ORDER BY m.created_at ASC, m.id ASC FOR UPDATE OF m")).
			WithArgs(shared.MovementTypeIncomeAgreement, *m.CompanyID, cutoff).
			WillReturnRows(addMovementRow(pgxmock.NewRows(movementRowColumns), m))

		movements, err := repo.ListOpenAgreements(ctx, *m.CompanyID, &cutoff, true)
		require.NoError(t, err)
		require.Len(t, movements, 1)
		assert.Equal(t, m.ID, movements[0].ID)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("preview without cutoff", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("AND m.closing_id IS NULL ORDER BY m.created_at ASC, m.id ASC")).
			WithArgs(shared.MovementTypeIncomeAgreement, *m.CompanyID).
			WillReturnRows(pgxmock.NewRows(movementRowColumns))

		movements, err := repo.ListOpenAgreements(ctx, *m.CompanyID, nil, false)
		require.NoError(t, err)
		assert.Empty(t, movements)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestMovementRepository_MarkSettled(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo := &MovementRepository{querier: mock, logger: newTestLogger()}
	closingID := uuid.New()
	ids := []uuid.UUID{uuid.New(), uuid.New(), uuid.New()}
	query := regexp.QuoteMeta("UPDATE movements SET closing_id = $1 WHERE id = ANY($2::uuid[]) AND closing_id IS NULL")

	t.Run("stamps every row", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(closingID, ids).WillReturnResult(pgxmock.NewResult("UPDATE", 3))

		stamped, err := repo.MarkSettled(ctx, closingID, ids)
		require.NoError(t, err)
		assert.Equal(t, int64(3), stamped)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("reports partial stamp", func(t *testing.T) {
		mock.ExpectExec(query).WithArgs(closingID, ids).WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		stamped, err := repo.MarkSettled(ctx, closingID, ids)
		require.NoError(t, err)
		assert.Equal(t, int64(1), stamped)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("empty selection skips the database", func(t *testing.T) {
		stamped, err := repo.MarkSettled(ctx, closingID, nil)
		require.NoError(t, err)
		assert.Zero(t, stamped)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("failure", func(t *testing.T) {
		dbErr := errors.New("deadlock detected")
		mock.ExpectExec(query).WithArgs(closingID, ids).WillReturnError(dbErr)

		_, err := repo.MarkSettled(ctx, closingID, ids)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
