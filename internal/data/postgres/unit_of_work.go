package postgres

import (
	"context"
	"log/slog"
	"time"

	"github.com/cash-register-ledger/internal/domain/audit"
	"github.com/cash-register-ledger/internal/domain/closing"
	"github.com/cash-register-ledger/internal/domain/company"
	"github.com/cash-register-ledger/internal/domain/movement"
	"github.com/cash-register-ledger/internal/domain/outbox"
	"github.com/cash-register-ledger/internal/domain/register"
	"github.com/cash-register-ledger/internal/domain/store"
	"github.com/cash-register-ledger/internal/platform/persistence"
	"github.com/jackc/pgx/v5"
)

// DB is the connection surface the unit of work needs. Satisfied by *pgxpool.Pool.
type DB interface {
	persistence.Querier
	persistence.TxBeginner
}

// repositories binds every repository to the same querier
type repositories struct {
	companies *CompanyRepository
	registers *RegisterRepository
	movements *MovementRepository
	closings  *ClosingRepository
	audit     *AuditRepository
	outbox    *OutboxRepository
}

func (r *repositories) Companies() company.Repository  { return r.companies }
func (r *repositories) Registers() register.Repository { return r.registers }
func (r *repositories) Movements() movement.Repository { return r.movements }
func (r *repositories) Closings() closing.Repository   { return r.closings }
func (r *repositories) Audit() audit.Repository        { return r.audit }
func (r *repositories) Outbox() outbox.Repository      { return r.outbox }

func (r *repositories) withTx(tx pgx.Tx) *repositories {
	return &repositories{
		companies: r.companies.WithTx(tx),
		registers: r.registers.WithTx(tx),
		movements: r.movements.WithTx(tx),
		closings:  r.closings.WithTx(tx),
		audit:     r.audit.WithTx(tx),
		outbox:    r.outbox.WithTx(tx),
	}
}

// UnitOfWork implements store.UnitOfWork on a PostgreSQL transaction
type UnitOfWork struct {
	db     DB
	reader *repositories
	logger *slog.Logger
}

var _ store.UnitOfWork = (*UnitOfWork)(nil)

// NewUnitOfWork creates a unit of work over db. Register dates are interpreted in loc.
func NewUnitOfWork(logger *slog.Logger, db DB, loc *time.Location) *UnitOfWork {
	return &UnitOfWork{
		db: db,
		reader: &repositories{
			companies: NewCompanyRepository(logger, db),
			registers: NewRegisterRepository(logger, db, loc),
			movements: NewMovementRepository(logger, db),
			closings:  NewClosingRepository(logger, db),
			audit:     NewAuditRepository(logger, db),
			outbox:    NewOutboxRepository(logger, db),
		},
		logger: logger,
	}
}

// Do runs fn inside a single transaction
func (u *UnitOfWork) Do(ctx context.Context, fn func(ctx context.Context, repos store.Repositories) error) error {
	return persistence.ExecuteTx(ctx, u.db, func(tx pgx.Tx) error {
		return fn(ctx, u.reader.withTx(tx))
	})
}

// Reader returns repositories bound to the pool
func (u *UnitOfWork) Reader() store.Repositories {
	return u.reader
}
