// Package store declares the unit of work through which every multi-write ledger
// operation runs.
package store

import (
	"context"

	"github.com/cash-register-ledger/internal/domain/audit"
	"github.com/cash-register-ledger/internal/domain/closing"
	"github.com/cash-register-ledger/internal/domain/company"
	"github.com/cash-register-ledger/internal/domain/movement"
	"github.com/cash-register-ledger/internal/domain/outbox"
	"github.com/cash-register-ledger/internal/domain/register"
)

// Repositories bundles the repositories bound to one transaction or to the pool
type Repositories interface {
	Companies() company.Repository
	Registers() register.Repository
	Movements() movement.Repository
	Closings() closing.Repository
	Audit() audit.Repository
	Outbox() outbox.Repository
}

// UnitOfWork runs fn atomically. Every write made through the supplied repositories
// commits together when fn returns nil and is discarded otherwise, including when
// ctx is cancelled or fn panics.
type UnitOfWork interface {
	Do(ctx context.Context, fn func(ctx context.Context, repos Repositories) error) error
	// Reader returns repositories for non-transactional reads
	Reader() Repositories
}
