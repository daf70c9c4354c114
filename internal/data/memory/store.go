// Package memory provides an in-process implementation of the ledger repositories.
// A unit of work runs against a private copy of the data and replaces the shared
// copy only when it succeeds, so failed operations leave no trace.
package memory

import (
	"context"
	"sync"

	"github.com/cash-register-ledger/internal/domain/audit"
	"github.com/cash-register-ledger/internal/domain/closing"
	"github.com/cash-register-ledger/internal/domain/company"
	"github.com/cash-register-ledger/internal/domain/movement"
	"github.com/cash-register-ledger/internal/domain/outbox"
	"github.com/cash-register-ledger/internal/domain/register"
	"github.com/cash-register-ledger/internal/domain/store"
	"github.com/google/uuid"
)

type dataset struct {
	companies map[uuid.UUID]company.Company
	registers map[string]register.Register // keyed by business day
	movements map[uuid.UUID]movement.Movement
	closings  map[uuid.UUID]closing.Closing
	audit     []audit.Entry
	outbox    []outbox.Message
	outboxSeq int64
}

func newDataset() *dataset {
	return &dataset{
		companies: make(map[uuid.UUID]company.Company),
		registers: make(map[string]register.Register),
		movements: make(map[uuid.UUID]movement.Movement),
		closings:  make(map[uuid.UUID]closing.Closing),
	}
}

func (d *dataset) clone() *dataset {
	c := &dataset{
		companies: make(map[uuid.UUID]company.Company, len(d.companies)),
		registers: make(map[string]register.Register, len(d.registers)),
		movements: make(map[uuid.UUID]movement.Movement, len(d.movements)),
		closings:  make(map[uuid.UUID]closing.Closing, len(d.closings)),
		audit:     append([]audit.Entry(nil), d.audit...),
		outbox:    append([]outbox.Message(nil), d.outbox...),
		outboxSeq: d.outboxSeq,
	}
	for k, v := range d.companies {
		c.companies[k] = v
	}
	for k, v := range d.registers {
		c.registers[k] = v
	}
	for k, v := range d.movements {
		c.movements[k] = v
	}
	for k, v := range d.closings {
		c.closings[k] = v
	}
	return c
}

// Store keeps all ledger data in memory. Units of work are serialized.
type Store struct {
	mu   sync.RWMutex
	data *dataset
}

var _ store.UnitOfWork = (*Store)(nil)

func New() *Store {
	return &Store{data: newDataset()}
}

// Do runs fn against a copy of the data and publishes the copy when fn succeeds
func (s *Store) Do(ctx context.Context, fn func(ctx context.Context, repos store.Repositories) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}

	work := s.data.clone()
	if err := fn(ctx, &repositories{store: s, tx: work}); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	s.data = work
	return nil
}

// Reader returns repositories that read the committed data
func (s *Store) Reader() store.Repositories {
	return &repositories{store: s}
}

// repositories reads and writes tx when bound to a unit of work and the shared
// data otherwise
type repositories struct {
	store *Store
	tx    *dataset
}

func (r *repositories) read(fn func(d *dataset) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.store.mu.RLock()
	defer r.store.mu.RUnlock()
	return fn(r.store.data)
}

func (r *repositories) write(fn func(d *dataset) error) error {
	if r.tx != nil {
		return fn(r.tx)
	}
	r.store.mu.Lock()
	defer r.store.mu.Unlock()
	return fn(r.store.data)
}

func (r *repositories) Companies() company.Repository  { return &companyRepository{r} }
func (r *repositories) Registers() register.Repository { return &registerRepository{r} }
func (r *repositories) Movements() movement.Repository { return &movementRepository{r} }
func (r *repositories) Closings() closing.Repository   { return &closingRepository{r} }
func (r *repositories) Audit() audit.Repository        { return &auditRepository{r} }
func (r *repositories) Outbox() outbox.Repository      { return &outboxRepository{r} }
