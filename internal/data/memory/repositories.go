package memory

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/cash-register-ledger/internal/domain/audit"
	"github.com/cash-register-ledger/internal/domain/closing"
	"github.com/cash-register-ledger/internal/domain/company"
	"github.com/cash-register-ledger/internal/domain/movement"
	"github.com/cash-register-ledger/internal/domain/outbox"
	"github.com/cash-register-ledger/internal/domain/register"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

const dayKeyLayout = "2006-01-02"

type companyRepository struct{ *repositories }

func (r *companyRepository) Create(_ context.Context, c *company.Company) error {
	return r.write(func(d *dataset) error {
		if _, exists := d.companies[c.ID]; exists {
			return fmt.Errorf("failed to create company: duplicate id %s", c.ID)
		}
		d.companies[c.ID] = *c
		return nil
	})
}

func (r *companyRepository) GetByID(_ context.Context, id uuid.UUID) (*company.Company, error) {
	var found company.Company
	err := r.read(func(d *dataset) error {
		c, ok := d.companies[id]
		if !ok {
			return company.ErrCompanyNotFound{CompanyID: id}
		}
		found = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

// LockForUpdate is a plain read; units of work are already serialized
func (r *companyRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*company.Company, error) {
	return r.GetByID(ctx, id)
}

func (r *companyRepository) ListActive(_ context.Context) ([]*company.Company, error) {
	companies := make([]*company.Company, 0)
	_ = r.read(func(d *dataset) error {
		for _, c := range d.companies {
			if c.Active {
				c := c
				companies = append(companies, &c)
			}
		}
		return nil
	})
	sort.Slice(companies, func(i, j int) bool {
		if companies[i].Name != companies[j].Name {
			return companies[i].Name < companies[j].Name
		}
		return companies[i].ID.String() < companies[j].ID.String()
	})
	return companies, nil
}

func (r *companyRepository) Update(_ context.Context, c *company.Company) error {
	return r.write(func(d *dataset) error {
		if _, ok := d.companies[c.ID]; !ok {
			return company.ErrCompanyNotFound{CompanyID: c.ID}
		}
		d.companies[c.ID] = *c
		return nil
	})
}

type registerRepository struct{ *repositories }

func (r *registerRepository) CreateIfAbsent(_ context.Context, reg *register.Register) (*register.Register, bool, error) {
	var (
		stored  register.Register
		created bool
	)
	err := r.write(func(d *dataset) error {
		key := reg.Date.Format(dayKeyLayout)
		if existing, ok := d.registers[key]; ok {
			stored = existing
			return nil
		}
		d.registers[key] = *reg
		stored, created = *reg, true
		return nil
	})
	if err != nil {
		return nil, false, err
	}
	return &stored, created, nil
}

func (r *registerRepository) GetByDate(_ context.Context, day time.Time) (*register.Register, error) {
	var found register.Register
	err := r.read(func(d *dataset) error {
		reg, ok := d.registers[day.Format(dayKeyLayout)]
		if !ok {
			return register.ErrRegisterNotFound{Date: day}
		}
		found = reg
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *registerRepository) LockByDate(ctx context.Context, day time.Time, _ register.LockMode) (*register.Register, error) {
	return r.GetByDate(ctx, day)
}

func (r *registerRepository) Update(_ context.Context, reg *register.Register) error {
	return r.write(func(d *dataset) error {
		key := reg.Date.Format(dayKeyLayout)
		existing, ok := d.registers[key]
		if !ok || existing.ID != reg.ID {
			return register.ErrRegisterNotFound{Date: reg.Date}
		}
		d.registers[key] = *reg
		return nil
	})
}

type movementRepository struct{ *repositories }

// withCompanyName copies m and fills in the current company name
func withCompanyName(d *dataset, m movement.Movement) *movement.Movement {
	m.CompanyName = ""
	if m.CompanyID != nil {
		if c, ok := d.companies[*m.CompanyID]; ok {
			m.CompanyName = c.Name
		}
	}
	return &m
}

func (r *movementRepository) Create(_ context.Context, m *movement.Movement) error {
	return r.write(func(d *dataset) error {
		if _, exists := d.movements[m.ID]; exists {
			return fmt.Errorf("failed to create movement: duplicate id %s", m.ID)
		}
		if m.Type.IsAgreement() && m.CompanyID == nil {
			return fmt.Errorf("failed to create movement: %w", movement.ErrMissingCompany)
		}
		d.movements[m.ID] = *m
		return nil
	})
}

func (r *movementRepository) GetByID(_ context.Context, id uuid.UUID) (*movement.Movement, error) {
	var found *movement.Movement
	err := r.read(func(d *dataset) error {
		m, ok := d.movements[id]
		if !ok {
			return movement.ErrMovementNotFound{MovementID: id}
		}
		found = withCompanyName(d, m)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}

func (r *movementRepository) LockForUpdate(ctx context.Context, id uuid.UUID) (*movement.Movement, error) {
	return r.GetByID(ctx, id)
}

func (r *movementRepository) Delete(_ context.Context, id uuid.UUID) error {
	return r.write(func(d *dataset) error {
		m, ok := d.movements[id]
		if !ok || m.IsSettled() {
			return movement.ErrMovementNotFound{MovementID: id}
		}
		delete(d.movements, id)
		return nil
	})
}

func (r *movementRepository) collect(match func(m *movement.Movement) bool) []*movement.Movement {
	movements := make([]*movement.Movement, 0)
	_ = r.read(func(d *dataset) error {
		for _, m := range d.movements {
			if match(&m) {
				movements = append(movements, withCompanyName(d, m))
			}
		}
		return nil
	})
	return movements
}

func sortMovements(movements []*movement.Movement, newestFirst bool) {
	sort.Slice(movements, func(i, j int) bool {
		a, b := movements[i], movements[j]
		if newestFirst {
			a, b = b, a
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.ID.String() < b.ID.String()
	})
}

func (r *movementRepository) ListByReport(_ context.Context, reportID uuid.UUID, limit int) ([]*movement.Movement, error) {
	movements := r.collect(func(m *movement.Movement) bool { return m.ReportID == reportID })
	sortMovements(movements, true)
	if limit > 0 && len(movements) > limit {
		movements = movements[:limit]
	}
	return movements, nil
}

func (r *movementRepository) ListByPeriod(_ context.Context, filter movement.PeriodFilter) ([]*movement.Movement, error) {
	movements := r.collect(func(m *movement.Movement) bool {
		if m.CreatedAt.Before(filter.From) || !m.CreatedAt.Before(filter.To) {
			return false
		}
		return filter.CompanyID == nil || (m.CompanyID != nil && *m.CompanyID == *filter.CompanyID)
	})
	sortMovements(movements, true)
	return movements, nil
}

func (r *movementRepository) ListOpenAgreements(_ context.Context, companyID uuid.UUID, cutoff *time.Time, _ bool) ([]*movement.Movement, error) {
	movements := r.collect(func(m *movement.Movement) bool {
		if !m.Type.IsAgreement() || m.IsSettled() || m.CompanyID == nil || *m.CompanyID != companyID {
			return false
		}
		return cutoff == nil || m.CreatedAt.Before(*cutoff)
	})
	sortMovements(movements, false)
	return movements, nil
}

func (r *movementRepository) MarkSettled(_ context.Context, closingID uuid.UUID, ids []uuid.UUID) (int64, error) {
	var stamped int64
	err := r.write(func(d *dataset) error {
		for _, id := range ids {
			m, ok := d.movements[id]
			if !ok || m.IsSettled() {
				continue
			}
			cid := closingID
			m.ClosingID = &cid
			d.movements[id] = m
			stamped++
		}
		return nil
	})
	return stamped, err
}

type closingRepository struct{ *repositories }

func (r *closingRepository) Create(_ context.Context, c *closing.Closing) error {
	return r.write(func(d *dataset) error {
		if _, exists := d.closings[c.ID]; exists {
			return fmt.Errorf("failed to create closing: duplicate id %s", c.ID)
		}
		d.closings[c.ID] = *c
		return nil
	})
}

func (r *closingRepository) GetByID(_ context.Context, id uuid.UUID) (*closing.Closing, error) {
	var found closing.Closing
	err := r.read(func(d *dataset) error {
		c, ok := d.closings[id]
		if !ok {
			return closing.ErrClosingNotFound{ClosingID: id}
		}
		found = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &found, nil
}

func (r *closingRepository) List(_ context.Context, companyID *uuid.UUID) ([]*closing.Closing, error) {
	closings := make([]*closing.Closing, 0)
	_ = r.read(func(d *dataset) error {
		for _, c := range d.closings {
			if companyID == nil || c.CompanyID == *companyID {
				c := c
				closings = append(closings, &c)
			}
		}
		return nil
	})
	sort.Slice(closings, func(i, j int) bool {
		if !closings[i].CreatedAt.Equal(closings[j].CreatedAt) {
			return closings[i].CreatedAt.After(closings[j].CreatedAt)
		}
		return closings[i].ID.String() > closings[j].ID.String()
	})
	return closings, nil
}

func (r *closingRepository) AgreementTotals(_ context.Context, filter closing.TotalsFilter) ([]*closing.CompanyTotal, error) {
	movements := (&movementRepository{r.repositories}).collect(func(m *movement.Movement) bool {
		if !m.Type.IsAgreement() || m.CompanyID == nil || !m.CreatedAt.Before(filter.To) {
			return false
		}
		if filter.From != nil && m.CreatedAt.Before(*filter.From) {
			return false
		}
		if filter.CompanyID != nil && *m.CompanyID != *filter.CompanyID {
			return false
		}
		return !filter.OpenOnly || !m.IsSettled()
	})
	return closing.Aggregate(movements), nil
}

type auditRepository struct{ *repositories }

func (r *auditRepository) Create(_ context.Context, e *audit.Entry) error {
	return r.write(func(d *dataset) error {
		d.audit = append(d.audit, *e)
		return nil
	})
}

func (r *auditRepository) Find(_ context.Context, filter audit.Filter) ([]*audit.Entry, error) {
	entries := make([]*audit.Entry, 0)
	_ = r.read(func(d *dataset) error {
		for _, e := range d.audit {
			if matchesAudit(&e, filter) {
				e := e
				entries = append(entries, &e)
			}
		}
		return nil
	})
	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	if limit := filter.EffectiveLimit(); limit > 0 && len(entries) > limit {
		entries = entries[:limit]
	}
	return entries, nil
}

func matchesAudit(e *audit.Entry, f audit.Filter) bool {
	switch {
	case f.UserID != "" && e.UserID != f.UserID:
		return false
	case f.Entity != "" && e.Entity != f.Entity:
		return false
	case f.EntityID != "" && e.EntityID != f.EntityID:
		return false
	case f.Action != "" && e.Action != f.Action:
		return false
	case f.From != nil && e.CreatedAt.Before(*f.From):
		return false
	case f.To != nil && !e.CreatedAt.Before(*f.To):
		return false
	}
	return true
}

type outboxRepository struct{ *repositories }

func (r *outboxRepository) Create(_ context.Context, m *outbox.Message) error {
	return r.write(func(d *dataset) error {
		for _, existing := range d.outbox {
			if existing.EventID == m.EventID {
				return fmt.Errorf("failed to create outbox message: duplicate event %s", m.EventID)
			}
		}
		d.outboxSeq++
		m.ID = d.outboxSeq
		d.outbox = append(d.outbox, *m)
		return nil
	})
}

func (r *outboxRepository) GetPending(_ context.Context, limit int) ([]*outbox.Message, error) {
	var messages []*outbox.Message
	_ = r.read(func(d *dataset) error {
		for _, m := range d.outbox {
			if m.Status != shared.OutboxStatusPending {
				continue
			}
			m := m
			messages = append(messages, &m)
			if limit > 0 && len(messages) == limit {
				break
			}
		}
		return nil
	})
	return messages, nil
}

func (r *outboxRepository) UpdateStatus(_ context.Context, id int64, status shared.OutboxStatus) error {
	return r.update(id, func(m *outbox.Message) {
		m.Status = status
		now := time.Now().UTC()
		m.LastAttemptAt = &now
	})
}

func (r *outboxRepository) IncrementAttempts(_ context.Context, id int64) error {
	return r.update(id, func(m *outbox.Message) {
		m.Attempts++
		now := time.Now().UTC()
		m.LastAttemptAt = &now
	})
}

func (r *outboxRepository) update(id int64, fn func(m *outbox.Message)) error {
	return r.write(func(d *dataset) error {
		for i := range d.outbox {
			if d.outbox[i].ID == id {
				fn(&d.outbox[i])
				return nil
			}
		}
		return outbox.ErrMessageNotFound{ID: id}
	})
}
