package service

import (
	"context"
	"io"
	"log/slog"
	"sync"

	"github.com/cash-register-ledger/internal/domain/event"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

type MockArchive struct {
	mock.Mock
}

func (m *MockArchive) Save(ctx context.Context, evt *event.LedgerEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

func (m *MockArchive) GetByEventID(ctx context.Context, eventID uuid.UUID) (*event.LedgerEvent, error) {
	args := m.Called(ctx, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*event.LedgerEvent), args.Error(1)
}

func (m *MockArchive) ListByAggregate(ctx context.Context, aggregateID string, limit int) ([]*event.LedgerEvent, error) {
	args := m.Called(ctx, aggregateID, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*event.LedgerEvent), args.Error(1)
}

type MockArchiveService struct {
	mock.Mock
}

func (m *MockArchiveService) ArchiveEvent(ctx context.Context, evt *event.LedgerEvent) error {
	args := m.Called(ctx, evt)
	return args.Error(0)
}

type archiveCounts struct {
	mu     sync.Mutex
	counts map[string]int
}

func newArchiveCounts() *archiveCounts {
	return &archiveCounts{counts: make(map[string]int)}
}

func (a *archiveCounts) IncrArchived(result string) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.counts[result]++
}

func (a *archiveCounts) get(result string) int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.counts[result]
}

func newTestLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}

func newEvent() *event.LedgerEvent {
	return &event.LedgerEvent{
		EventID:       uuid.New(),
		Type:          event.TypeRegisterOpened,
		AggregateType: "DailyReport",
		AggregateID:   uuid.NewString(),
		ActorID:       "operator-1",
		CorrelationID: "corr-1",
		Payload:       []byte(`{"opening_balance":"150"}`),
	}
}
