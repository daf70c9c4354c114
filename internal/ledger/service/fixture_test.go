package service_test

import (
	"context"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/cash-register-ledger/internal/clock"
	"github.com/cash-register-ledger/internal/config"
	"github.com/cash-register-ledger/internal/data/memory"
	"github.com/cash-register-ledger/internal/domain/company"
	"github.com/cash-register-ledger/internal/domain/movement"
	"github.com/cash-register-ledger/internal/domain/outbox"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/cash-register-ledger/internal/domain/store"
	"github.com/cash-register-ledger/internal/ledger/components"
	"github.com/cash-register-ledger/internal/ledger/service"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

var businessZone = clock.FixedZone(-4 * time.Hour)

type fixture struct {
	store    *memory.Store
	clock    *clock.Frozen
	services *components.Services
}

func testConfig() *config.Config {
	return &config.Config{
		Business: config.BusinessConfig{
			UTCOffsetHours:        -4,
			RecentMovementsLimit:  5,
			AuditDefaultLimit:     100,
			AuditMaxLimit:         500,
			SettlementLockTimeout: 5 * time.Second,
		},
		WorkerPool: config.WorkerPoolConfig{Size: 4},
	}
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	return newFixtureWithUnitOfWork(t, func(st *memory.Store) store.UnitOfWork { return st })
}

// newFixtureWithUnitOfWork lets a test wrap the memory store the services write through
func newFixtureWithUnitOfWork(t *testing.T, wrap func(*memory.Store) store.UnitOfWork) *fixture {
	t.Helper()

	st := memory.New()
	clk := clock.NewFrozen(time.Date(2024, 3, 15, 10, 0, 0, 0, businessZone), businessZone)
	services := components.CreateLedgerServices(components.Dependencies{
		UnitOfWork: wrap(st),
		Clock:      clk,
		Config:     testConfig(),
		Logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	})

	return &fixture{store: st, clock: clk, services: services}
}

func operator(userID string) context.Context {
	return shared.WithActor(context.Background(), shared.Actor{
		UserID:        userID,
		IPAddress:     "10.0.0.7",
		CorrelationID: "corr-" + userID,
	})
}

func dec(value string) decimal.Decimal {
	return decimal.RequireFromString(value)
}

func intPtr(n int) *int {
	return &n
}

func (f *fixture) startDay(t *testing.T, opening string) {
	t.Helper()
	_, _, err := f.services.Registers.StartDay(operator("operator-1"), service.StartDayInput{OpeningBalance: dec(opening)})
	require.NoError(t, err)
}

func (f *fixture) createCompany(t *testing.T, name, price string, billing shared.BillingType) *company.Company {
	t.Helper()
	c, err := f.services.Companies.CreateCompany(operator("admin"), service.CreateCompanyInput{
		Name:        name,
		PriceUnit:   dec(price),
		BillingType: billing,
	})
	require.NoError(t, err)
	return c
}

// record creates a movement one minute after the previous one
func (f *fixture) record(t *testing.T, input service.CreateMovementInput) *movement.Movement {
	t.Helper()
	f.clock.Advance(time.Minute)
	m, err := f.services.Movements.CreateMovement(operator("operator-1"), input)
	require.NoError(t, err)
	return m
}

func (f *fixture) cash(t *testing.T, amount string) *movement.Movement {
	t.Helper()
	return f.record(t, service.CreateMovementInput{Type: shared.MovementTypeIncomeCash, Amount: dec(amount)})
}

func (f *fixture) meal(t *testing.T, companyID uuid.UUID, quantity int) *movement.Movement {
	t.Helper()
	return f.record(t, service.CreateMovementInput{
		Type:         shared.MovementTypeIncomeAgreement,
		CompanyID:    &companyID,
		ItemCategory: shared.ItemCategoryMeal,
		Quantity:     &quantity,
	})
}

func (f *fixture) pendingEvents(t *testing.T) []*outbox.Message {
	t.Helper()
	messages, err := f.store.Reader().Outbox().GetPending(context.Background(), 0)
	require.NoError(t, err)
	return messages
}
