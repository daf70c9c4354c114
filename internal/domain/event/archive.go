package event

import (
	"context"

	"github.com/google/uuid"
)

// Archive stores relayed ledger events for later inspection
type Archive interface {
	// Save stores the event. Saving an event id twice returns ErrDuplicateEvent.
	Save(ctx context.Context, event *LedgerEvent) error
	GetByEventID(ctx context.Context, eventID uuid.UUID) (*LedgerEvent, error)
	// ListByAggregate returns the aggregate's events oldest first
	ListByAggregate(ctx context.Context, aggregateID string, limit int) ([]*LedgerEvent, error)
}

// ErrEventNotFound indicates missing archived event
type ErrEventNotFound struct {
	EventID uuid.UUID
}

func (e ErrEventNotFound) Error() string {
	return "ledger event not found: " + e.EventID.String()
}

// Is implements the errors.Is interface for ErrEventNotFound
func (e ErrEventNotFound) Is(target error) bool {
	t, ok := target.(ErrEventNotFound)
	if !ok {
		return false
	}
	if t.EventID == uuid.Nil {
		return true
	}
	return e.EventID == t.EventID
}

// ErrDuplicateEvent indicates the event was already archived
type ErrDuplicateEvent struct {
	EventID uuid.UUID
}

func (e ErrDuplicateEvent) Error() string {
	return "duplicate ledger event: " + e.EventID.String()
}

// Is implements the errors.Is interface for ErrDuplicateEvent
func (e ErrDuplicateEvent) Is(target error) bool {
	t, ok := target.(ErrDuplicateEvent)
	if !ok {
		return false
	}
	if t.EventID == uuid.Nil {
		return true
	}
	return e.EventID == t.EventID
}
