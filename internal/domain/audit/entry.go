package audit

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

const (
	DefaultLimit     = 100
	MaxLimit         = 500
	UserHistoryLimit = 50
)

// Entry is an append-only record of a mutating action
type Entry struct {
	ID        uuid.UUID          `json:"id"`
	UserID    string             `json:"user_id"`
	Action    shared.AuditAction `json:"action"`
	Entity    string             `json:"entity"`
	EntityID  string             `json:"entity_id"`
	OldValue  json.RawMessage    `json:"old_value,omitempty"`
	NewValue  json.RawMessage    `json:"new_value,omitempty"`
	IPAddress string             `json:"ip_address,omitempty"`
	UserAgent string             `json:"user_agent,omitempty"`
	CreatedAt time.Time          `json:"created_at"`
}

// NewEntry snapshots oldValue and newValue as JSON. A nil value is stored as null.
func NewEntry(actor shared.Actor, action shared.AuditAction, entity, entityID string, oldValue, newValue interface{}, now time.Time) (*Entry, error) {
	oldRaw, err := snapshot(oldValue)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot old value: %w", err)
	}
	newRaw, err := snapshot(newValue)
	if err != nil {
		return nil, fmt.Errorf("failed to snapshot new value: %w", err)
	}

	return &Entry{
		ID:        uuid.New(),
		UserID:    actor.UserID,
		Action:    action,
		Entity:    entity,
		EntityID:  entityID,
		OldValue:  oldRaw,
		NewValue:  newRaw,
		IPAddress: actor.IPAddress,
		UserAgent: actor.UserAgent,
		CreatedAt: now,
	}, nil
}

func snapshot(value interface{}) (json.RawMessage, error) {
	if value == nil {
		return nil, nil
	}
	return json.Marshal(value)
}

// Filter narrows an audit query. Zero values mean "any". To is exclusive.
type Filter struct {
	UserID   string
	Entity   string
	EntityID string
	Action   shared.AuditAction
	From     *time.Time
	To       *time.Time
	Limit    int
}

// EffectiveLimit clamps the requested limit to [1, MaxLimit], defaulting to DefaultLimit.
// A negative limit means unbounded.
func (f Filter) EffectiveLimit() int {
	switch {
	case f.Limit < 0:
		return 0
	case f.Limit == 0:
		return DefaultLimit
	case f.Limit > MaxLimit:
		return MaxLimit
	default:
		return f.Limit
	}
}
