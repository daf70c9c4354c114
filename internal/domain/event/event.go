package event

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/google/uuid"
)

// Type names a ledger event published after a committed mutation
type Type string

const (
	TypeMovementCreated  Type = "movement.created"
	TypeMovementDeleted  Type = "movement.deleted"
	TypeClosingPerformed Type = "closing.performed"
	TypeRegisterOpened   Type = "register.opened"
	TypeRegisterClosed   Type = "register.closed"
	TypeCompanyCreated   Type = "company.created"
	TypeCompanyUpdated   Type = "company.updated"
)

// LedgerEvent is the integration event relayed from the outbox to Kafka and archived
type LedgerEvent struct {
	EventID       uuid.UUID       `json:"event_id" bson:"event_id"`
	Type          Type            `json:"type" bson:"type"`
	AggregateType string          `json:"aggregate_type" bson:"aggregate_type"`
	AggregateID   string          `json:"aggregate_id" bson:"aggregate_id"`
	ActorID       string          `json:"actor_id,omitempty" bson:"actor_id,omitempty"`
	CorrelationID string          `json:"correlation_id,omitempty" bson:"correlation_id,omitempty"`
	OccurredAt    time.Time       `json:"occurred_at" bson:"occurred_at"`
	Payload       json.RawMessage `json:"payload" bson:"-"`
}

// NewLedgerEvent serializes payload as the event body
func NewLedgerEvent(eventType Type, aggregateType, aggregateID string, actor shared.Actor, payload interface{}, now time.Time) (*LedgerEvent, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return &LedgerEvent{
		EventID:       uuid.New(),
		Type:          eventType,
		AggregateType: aggregateType,
		AggregateID:   aggregateID,
		ActorID:       actor.UserID,
		CorrelationID: actor.CorrelationID,
		OccurredAt:    now,
		Payload:       body,
	}, nil
}

// Validate checks the fields required to archive an event
func (e *LedgerEvent) Validate() error {
	if e.EventID == uuid.Nil {
		return errors.New("event id is required")
	}
	if e.Type == "" {
		return errors.New("event type is required")
	}
	if e.AggregateID == "" {
		return errors.New("aggregate id is required")
	}
	return nil
}
