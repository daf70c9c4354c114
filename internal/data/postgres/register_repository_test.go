package postgres

import (
	"context"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/cash-register-ledger/internal/clock"
	"github.com/cash-register-ledger/internal/domain/register"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v3"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var registerRowColumns = []string{
	"id", "date", "opening_balance", "final_balance", "status", "opened_by", "closed_by", "closed_at", "created_at", "updated_at",
}

func newRegisterRepo(mock pgxmock.PgxPoolIface) (*RegisterRepository, *time.Location) {
	loc := clock.FixedZone(clock.DefaultUTCOffset)
	return &RegisterRepository{querier: mock, logger: newTestLogger(), loc: loc}, loc
}

func TestRegisterRepository_CreateIfAbsent(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo, loc := newRegisterRepo(mock)
	day := time.Date(2024, 3, 10, 0, 0, 0, 0, loc)
	now := time.Date(2024, 3, 10, 8, 0, 0, 0, loc)
	reg, err := register.NewRegister(day, decimal.RequireFromString("150.00"), "maria", now)
	require.NoError(t, err)

	insert := regexp.QuoteMeta("ON CONFLICT (date) DO NOTHING")
	selectByDate := regexp.QuoteMeta("FROM daily_reports WHERE date = $1")
	storedDate := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	t.Run("created", func(t *testing.T) {
		mock.ExpectExec(insert).
			WithArgs(reg.ID, reg.Date, reg.OpeningBalance, reg.Status, reg.OpenedBy, reg.CreatedAt, reg.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 1))
		mock.ExpectQuery(selectByDate).WithArgs(reg.Date).WillReturnRows(
			pgxmock.NewRows(registerRowColumns).AddRow(
				reg.ID, storedDate, reg.OpeningBalance, decimal.NullDecimal{}, reg.Status, reg.OpenedBy, "", nil, reg.CreatedAt, reg.UpdatedAt,
			))

		stored, created, err := repo.CreateIfAbsent(ctx, reg)
		require.NoError(t, err)
		assert.True(t, created)
		assert.Equal(t, reg.ID, stored.ID)
		assert.True(t, stored.Date.Equal(day))
		assert.Equal(t, loc, stored.Date.Location())
		assert.Nil(t, stored.ClosedAt)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("already open returns the winner", func(t *testing.T) {
		winnerID := uuid.New()
		mock.ExpectExec(insert).
			WithArgs(reg.ID, reg.Date, reg.OpeningBalance, reg.Status, reg.OpenedBy, reg.CreatedAt, reg.UpdatedAt).
			WillReturnResult(pgxmock.NewResult("INSERT", 0))
		mock.ExpectQuery(selectByDate).WithArgs(reg.Date).WillReturnRows(
			pgxmock.NewRows(registerRowColumns).AddRow(
				winnerID, storedDate, decimal.RequireFromString("90.00"), decimal.NullDecimal{}, shared.RegisterStatusOpen, "joao", "", nil, reg.CreatedAt, reg.UpdatedAt,
			))

		stored, created, err := repo.CreateIfAbsent(ctx, reg)
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, winnerID, stored.ID)
		assert.Equal(t, "joao", stored.OpenedBy)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("insert failure", func(t *testing.T) {
		dbErr := errors.New("db error")
		mock.ExpectExec(insert).
			WithArgs(reg.ID, reg.Date, reg.OpeningBalance, reg.Status, reg.OpenedBy, reg.CreatedAt, reg.UpdatedAt).
			WillReturnError(dbErr)

		stored, created, err := repo.CreateIfAbsent(ctx, reg)
		assert.Nil(t, stored)
		assert.False(t, created)
		assert.ErrorIs(t, err, dbErr)
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRegisterRepository_GetByDate(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo, loc := newRegisterRepo(mock)
	day := time.Date(2024, 3, 11, 0, 0, 0, 0, loc)
	query := regexp.QuoteMeta("FROM daily_reports WHERE date = $1")

	t.Run("closed register", func(t *testing.T) {
		closedAt := time.Date(2024, 3, 11, 22, 0, 0, 0, loc)
		final := decimal.NullDecimal{Decimal: decimal.RequireFromString("420.75"), Valid: true}
		mock.ExpectQuery(query).WithArgs(day).WillReturnRows(
			pgxmock.NewRows(registerRowColumns).AddRow(
				uuid.New(), time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC), decimal.RequireFromString("100"), final,
				shared.RegisterStatusClosed, "maria", "joao", &closedAt, closedAt, closedAt,
			))

		reg, err := repo.GetByDate(ctx, day)
		require.NoError(t, err)
		assert.False(t, reg.IsOpen())
		assert.Equal(t, "joao", reg.ClosedBy)
		require.NotNil(t, reg.ClosedAt)
		assert.True(t, reg.ClosedAt.Equal(closedAt))
		assert.True(t, reg.FinalBalance.Valid)
		assert.True(t, reg.FinalBalance.Decimal.Equal(decimal.RequireFromString("420.75")))
		assert.Equal(t, "2024-03-11", reg.Date.Format(clock.DayLayout))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("not found", func(t *testing.T) {
		mock.ExpectQuery(query).WithArgs(day).WillReturnError(pgx.ErrNoRows)

		reg, err := repo.GetByDate(ctx, day)
		assert.Nil(t, reg)
		assert.ErrorIs(t, err, register.ErrRegisterNotFound{Date: day})
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("db error", func(t *testing.T) {
		dbErr := errors.New("timeout")
		mock.ExpectQuery(query).WithArgs(day).WillReturnError(dbErr)

		reg, err := repo.GetByDate(ctx, day)
		assert.Nil(t, reg)
		assert.ErrorIs(t, err, dbErr)
		assert.Contains(t, err.Error(), "failed to get register")
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRegisterRepository_LockByDate(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo, loc := newRegisterRepo(mock)
	day := time.Date(2024, 3, 12, 0, 0, 0, 0, loc)
	row := func() *pgxmock.Rows {
		return pgxmock.NewRows(registerRowColumns).AddRow(
			uuid.New(), day, decimal.Zero, decimal.NullDecimal{}, shared.RegisterStatusOpen, "maria", "", nil, day, day,
		)
	}

	testCases := []struct {
		name     string
		mode     register.LockMode
		fragment string
	}{
		{"share", register.LockShare, "WHERE date = $1 FOR SHARE"},
		{"update", register.LockUpdate, "WHERE date = $1 FOR UPDATE"},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			mock.ExpectQuery(regexp.QuoteMeta(tc.fragment)).WithArgs(day).WillReturnRows(row())

			reg, err := repo.LockByDate(ctx, day, tc.mode)
			require.NoError(t, err)
			assert.True(t, reg.IsOpen())
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}

	t.Run("missing register", func(t *testing.T) {
		mock.ExpectQuery(regexp.QuoteMeta("FOR SHARE")).WithArgs(day).WillReturnError(pgx.ErrNoRows)

		_, err := repo.LockByDate(ctx, day, register.LockShare)
		assert.ErrorIs(t, err, register.ErrRegisterNotFound{})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestRegisterRepository_Update(t *testing.T) {
	ctx := context.Background()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	repo, loc := newRegisterRepo(mock)
	day := time.Date(2024, 3, 13, 0, 0, 0, 0, loc)
	reg, err := register.NewRegister(day, decimal.RequireFromString("50"), "maria", day.Add(8*time.Hour))
	require.NoError(t, err)
	require.NoError(t, reg.Close(decimal.RequireFromString("310.20"), "joao", day.Add(20*time.Hour)))

	query := regexp.QuoteMeta("UPDATE daily_reports")

	t.Run("success", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(reg.Status, reg.FinalBalance, reg.ClosedBy, reg.ClosedAt, reg.UpdatedAt, reg.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 1))

		assert.NoError(t, repo.Update(ctx, reg))
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("missing row", func(t *testing.T) {
		mock.ExpectExec(query).
			WithArgs(reg.Status, reg.FinalBalance, reg.ClosedBy, reg.ClosedAt, reg.UpdatedAt, reg.ID).
			WillReturnResult(pgxmock.NewResult("UPDATE", 0))

		err := repo.Update(ctx, reg)
		assert.ErrorIs(t, err, register.ErrRegisterNotFound{Date: day})
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}
