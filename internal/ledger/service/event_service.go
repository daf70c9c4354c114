package service

import (
	"context"

	"github.com/cash-register-ledger/internal/domain/event"
)

const defaultEventLimit = 100

// EventServiceImpl implements the EventService interface
type EventServiceImpl struct {
	archive event.Archive
}

// NewEventService creates a new event service. A nil archive makes every read
// fail with ErrEventArchiveUnavailable.
func NewEventService(archive event.Archive) EventService {
	return &EventServiceImpl{archive: archive}
}

func (s *EventServiceImpl) ListByAggregate(ctx context.Context, aggregateID string, limit int) ([]*event.LedgerEvent, error) {
	if s.archive == nil {
		return nil, ErrEventArchiveUnavailable
	}
	if limit <= 0 || limit > defaultEventLimit {
		limit = defaultEventLimit
	}
	return s.archive.ListByAggregate(ctx, aggregateID, limit)
}
