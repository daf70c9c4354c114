package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/cash-register-ledger/internal/clock"
	"github.com/cash-register-ledger/internal/config"
	"github.com/cash-register-ledger/internal/data/memory"
	"github.com/cash-register-ledger/internal/domain/audit"
	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/cash-register-ledger/internal/domain/store"
	"github.com/cash-register-ledger/internal/ledger/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func seedAudit(t *testing.T, st *memory.Store, entries ...*audit.Entry) {
	t.Helper()
	err := st.Do(context.Background(), func(ctx context.Context, repos store.Repositories) error {
		for _, e := range entries {
			if err := repos.Audit().Create(ctx, e); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)
}

func auditEntry(t *testing.T, userID string, action shared.AuditAction, entity, entityID string, at time.Time) *audit.Entry {
	t.Helper()
	e, err := audit.NewEntry(shared.Actor{UserID: userID}, action, entity, entityID, nil, map[string]string{"id": entityID}, at)
	require.NoError(t, err)
	return e
}

func TestAuditService_Query(t *testing.T) {
	st := memory.New()
	clk := clock.NewFrozen(time.Date(2024, 3, 15, 10, 0, 0, 0, businessZone), businessZone)
	cfg := config.BusinessConfig{AuditDefaultLimit: 3, AuditMaxLimit: 4}
	svc := service.NewAuditService(st, clk, cfg)

	// 21:00 local on the 14th is the 15th in UTC
	lateOn14th := time.Date(2024, 3, 14, 21, 0, 0, 0, businessZone)
	on15th := time.Date(2024, 3, 15, 9, 0, 0, 0, businessZone)
	seedAudit(t, st,
		auditEntry(t, "ana", shared.AuditActionOpen, shared.EntityDailyReport, "r1", lateOn14th),
		auditEntry(t, "ana", shared.AuditActionCreate, shared.EntityMovement, "m1", on15th),
		auditEntry(t, "bob", shared.AuditActionDelete, shared.EntityMovement, "m1", on15th.Add(time.Minute)),
		auditEntry(t, "bob", shared.AuditActionCreate, shared.EntityCompany, "c1", on15th.Add(2*time.Minute)),
		auditEntry(t, "bob", shared.AuditActionUpdate, shared.EntityCompany, "c1", on15th.Add(3*time.Minute)),
		auditEntry(t, "bob", shared.AuditActionUpdate, shared.EntityCompany, "c1", on15th.Add(4*time.Minute)),
	)

	testCases := []struct {
		name     string
		query    service.AuditQuery
		expected int
	}{
		{"DefaultLimit", service.AuditQuery{}, 3},
		{"ClampedToMax", service.AuditQuery{Limit: 50}, 4},
		{"ByUser", service.AuditQuery{UserID: "ana"}, 2},
		{"ByEntity", service.AuditQuery{Entity: shared.EntityMovement, EntityID: "m1"}, 2},
		{"ByAction", service.AuditQuery{Action: shared.AuditActionUpdate}, 2},
		{"ByBusinessDay", service.AuditQuery{StartDate: "2024-03-14", EndDate: "2024-03-14"}, 1},
		{"FromDay", service.AuditQuery{StartDate: "2024-03-15", Limit: 4}, 4},
		{"InvertedWindow", service.AuditQuery{StartDate: "2024-03-15", EndDate: "2024-03-14"}, 0},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			entries, err := svc.Query(context.Background(), tc.query)
			require.NoError(t, err)
			assert.Len(t, entries, tc.expected)
		})
	}

	t.Run("NewestFirst", func(t *testing.T) {
		entries, err := svc.Query(context.Background(), service.AuditQuery{Entity: shared.EntityMovement})
		require.NoError(t, err)
		require.Len(t, entries, 2)
		assert.Equal(t, shared.AuditActionDelete, entries[0].Action)
	})

	t.Run("RejectsMalformedFilters", func(t *testing.T) {
		for _, q := range []service.AuditQuery{
			{Action: "READ"},
			{Entity: "Account"},
			{StartDate: "yesterday"},
			{Limit: -1},
		} {
			_, err := svc.Query(context.Background(), q)
			assert.ErrorIs(t, err, shared.ValidationError{}, q)
		}
	})

	t.Run("FindByEntityIsUnbounded", func(t *testing.T) {
		entries, err := svc.FindByEntity(context.Background(), shared.EntityCompany, "c1")
		require.NoError(t, err)
		assert.Len(t, entries, 3)
	})

	t.Run("FindByUser", func(t *testing.T) {
		entries, err := svc.FindByUser(context.Background(), "bob")
		require.NoError(t, err)
		assert.Len(t, entries, 4)
		for _, e := range entries {
			assert.Equal(t, "bob", e.UserID)
		}
	})
}
