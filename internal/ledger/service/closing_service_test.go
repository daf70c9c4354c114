package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cash-register-ledger/internal/domain/closing"
	"github.com/cash-register-ledger/internal/domain/company"
	"github.com/cash-register-ledger/internal/domain/event"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/cash-register-ledger/internal/ledger/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClosingService_PerformClosing(t *testing.T) {
	t.Run("SettlesEveryOpenAgreementUpToTheCutoff", func(t *testing.T) {
		f := newFixture(t)
		acme := f.createCompany(t, "Acme", "10.00", shared.BillingTypeGroup)
		other := f.createCompany(t, "Beta", "20.00", shared.BillingTypeGroup)

		f.startDay(t, "0")
		first := f.meal(t, acme.ID, 2)
		f.record(t, service.CreateMovementInput{
			Type: shared.MovementTypeIncomeAgreement, CompanyID: &acme.ID,
			ItemCategory: shared.ItemCategoryExtra, Amount: dec("3.10"),
		})
		f.meal(t, other.ID, 1)
		f.cash(t, "40")

		f.clock.Advance(24 * time.Hour)
		f.startDay(t, "0")
		nextDay := f.meal(t, acme.ID, 1)

		result, err := f.services.Closings.PerformClosing(operator("manager"), service.PerformClosingInput{
			CompanyID: acme.ID, EndDate: "2024-03-15",
		})
		require.NoError(t, err)

		assert.Equal(t, acme.ID, result.CompanyID)
		assert.Equal(t, 2, result.MovementCount)
		assert.True(t, dec("23.10").Equal(result.TotalAmount), result.TotalAmount.String())
		assert.True(t, first.CreatedAt.Equal(result.StartDate))
		assert.True(t, time.Date(2024, 3, 15, 23, 59, 59, int(999*time.Millisecond), businessZone).Equal(result.EndDate))
		assert.Equal(t, "manager", result.CreatedBy)

		open, err := f.services.Closings.ListOpenMovements(context.Background(), acme.ID)
		require.NoError(t, err)
		require.Len(t, open, 1)
		assert.Equal(t, nextDay.ID, open[0].ID)

		otherOpen, err := f.services.Closings.ListOpenMovements(context.Background(), other.ID)
		require.NoError(t, err)
		assert.Len(t, otherOpen, 1)

		stored, err := f.services.Closings.GetClosing(context.Background(), result.ID)
		require.NoError(t, err)
		assert.True(t, result.TotalAmount.Equal(stored.TotalAmount))

		var performed int
		for _, m := range f.pendingEvents(t) {
			if m.EventType == event.TypeClosingPerformed && m.AggregateID == result.ID.String() {
				performed++
			}
		}
		assert.Equal(t, 1, performed)
	})

	t.Run("NothingToClose", func(t *testing.T) {
		f := newFixture(t)
		acme := f.createCompany(t, "Acme", "10.00", shared.BillingTypeGroup)

		_, err := f.services.Closings.PerformClosing(operator("manager"), service.PerformClosingInput{
			CompanyID: acme.ID, EndDate: "2024-03-15",
		})
		assert.ErrorIs(t, err, closing.ErrNothingToClose)

		closings, err := f.services.Closings.ListClosings(context.Background(), &acme.ID)
		require.NoError(t, err)
		assert.Empty(t, closings)
	})

	t.Run("SecondClosingFindsNothing", func(t *testing.T) {
		f := newFixture(t)
		acme := f.createCompany(t, "Acme", "10.00", shared.BillingTypeGroup)
		f.startDay(t, "0")
		f.meal(t, acme.ID, 1)

		input := service.PerformClosingInput{CompanyID: acme.ID, EndDate: "2024-03-15"}
		_, err := f.services.Closings.PerformClosing(operator("manager"), input)
		require.NoError(t, err)
		_, err = f.services.Closings.PerformClosing(operator("manager"), input)
		assert.ErrorIs(t, err, closing.ErrNothingToClose)
	})

	t.Run("ConcurrentClosingsSettleOnce", func(t *testing.T) {
		f := newFixture(t)
		acme := f.createCompany(t, "Acme", "10.00", shared.BillingTypeGroup)
		f.startDay(t, "0")
		for i := 0; i < 5; i++ {
			f.meal(t, acme.ID, 1)
		}

		const callers = 8
		var (
			wg        sync.WaitGroup
			mu        sync.Mutex
			successes []*closing.Closing
			failures  []error
		)
		for i := 0; i < callers; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				c, err := f.services.Closings.PerformClosing(operator("manager"), service.PerformClosingInput{
					CompanyID: acme.ID, EndDate: "2024-03-15",
				})
				mu.Lock()
				defer mu.Unlock()
				if err != nil {
					failures = append(failures, err)
					return
				}
				successes = append(successes, c)
			}()
		}
		wg.Wait()

		require.Len(t, successes, 1)
		assert.Equal(t, 5, successes[0].MovementCount)
		assert.True(t, dec("50").Equal(successes[0].TotalAmount))
		for _, err := range failures {
			assert.True(t, errors.Is(err, closing.ErrNothingToClose) || errors.Is(err, closing.ErrSettlementInProgress), err)
		}

		closings, err := f.services.Closings.ListClosings(context.Background(), nil)
		require.NoError(t, err)
		assert.Len(t, closings, 1)
	})

	t.Run("UnknownCompany", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.services.Closings.PerformClosing(operator("manager"), service.PerformClosingInput{
			CompanyID: uuid.New(), EndDate: "2024-03-15",
		})
		assert.ErrorIs(t, err, company.ErrCompanyNotFound{})
	})

	t.Run("MalformedInput", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.services.Closings.PerformClosing(operator("manager"), service.PerformClosingInput{EndDate: "03/15/2024"})

		var ve shared.ValidationError
		require.True(t, errors.As(err, &ve))
		assert.Len(t, ve.Errors, 2)
	})

	t.Run("RequiresAnActor", func(t *testing.T) {
		f := newFixture(t)
		_, err := f.services.Closings.PerformClosing(context.Background(), service.PerformClosingInput{
			CompanyID: uuid.New(), EndDate: "2024-03-15",
		})
		assert.ErrorIs(t, err, service.ErrUnauthenticated)
	})
}

func TestClosingService_Totals(t *testing.T) {
	f := newFixture(t)
	acme := f.createCompany(t, "Acme", "10.00", shared.BillingTypeGroup)
	solo := f.createCompany(t, "Solo", "8.00", shared.BillingTypeIndividual)

	f.startDay(t, "0")
	f.meal(t, acme.ID, 2)
	f.record(t, service.CreateMovementInput{
		Type: shared.MovementTypeIncomeAgreement, CompanyID: &solo.ID,
		ItemCategory: shared.ItemCategoryMeal, Consumer: "Ana",
	})
	_, err := f.services.Closings.PerformClosing(operator("manager"), service.PerformClosingInput{
		CompanyID: acme.ID, EndDate: "2024-03-15",
	})
	require.NoError(t, err)

	f.clock.Advance(24 * time.Hour)
	f.startDay(t, "0")
	f.meal(t, acme.ID, 1)

	t.Run("OpenTotalsUpToToday", func(t *testing.T) {
		totals, err := f.services.Closings.ListOpenTotals(context.Background(), service.OpenTotalsQuery{})
		require.NoError(t, err)
		require.Len(t, totals, 2)

		assert.Equal(t, solo.ID, totals[0].CompanyID)
		assert.Equal(t, "Solo", totals[0].CompanyName)
		assert.Equal(t, shared.BillingTypeIndividual, totals[0].BillingType)
		assert.True(t, dec("8").Equal(totals[0].TotalAmount))

		assert.Equal(t, acme.ID, totals[1].CompanyID)
		assert.Equal(t, "Acme", totals[1].CompanyName)
		assert.Equal(t, 1, totals[1].MovementCount)
		assert.True(t, dec("10").Equal(totals[1].TotalAmount))
	})

	t.Run("OpenTotalsUpToAnEarlierDay", func(t *testing.T) {
		totals, err := f.services.Closings.ListOpenTotals(context.Background(), service.OpenTotalsQuery{EndDate: "2024-03-15"})
		require.NoError(t, err)
		require.Len(t, totals, 1)
		assert.Equal(t, solo.ID, totals[0].CompanyID)
	})

	t.Run("GroupedTotalsIncludeSettledMovements", func(t *testing.T) {
		totals, err := f.services.Closings.ListGroupedTotals(context.Background(), service.GroupedTotalsQuery{
			StartDate: "2024-03-15",
			EndDate:   "2024-03-16",
			CompanyID: &acme.ID,
		})
		require.NoError(t, err)
		require.Len(t, totals, 1)
		assert.Equal(t, 2, totals[0].MovementCount)
		assert.Equal(t, 3, totals[0].TotalQuantity)
		assert.True(t, dec("30").Equal(totals[0].TotalAmount))
	})

	t.Run("GroupedTotalsRequireAWindow", func(t *testing.T) {
		_, err := f.services.Closings.ListGroupedTotals(context.Background(), service.GroupedTotalsQuery{EndDate: "2024-03-16"})
		assert.ErrorIs(t, err, shared.ValidationError{})
	})

	t.Run("OpenMovementsOfUnknownCompany", func(t *testing.T) {
		_, err := f.services.Closings.ListOpenMovements(context.Background(), uuid.New())
		assert.ErrorIs(t, err, company.ErrCompanyNotFound{})
	})
}
