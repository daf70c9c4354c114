// Package mongo archives relayed ledger events in MongoDB
package mongo

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/cash-register-ledger/internal/domain/event"
)

const (
	// EventCollectionName is the name of the event archive collection in MongoDB
	EventCollectionName = "ledger_events"
)

// eventDocument is the stored form of a ledger event. The payload is kept as the
// exact JSON text that was published.
type eventDocument struct {
	EventID       string    `bson:"event_id"`
	Type          string    `bson:"type"`
	AggregateType string    `bson:"aggregate_type"`
	AggregateID   string    `bson:"aggregate_id"`
	ActorID       string    `bson:"actor_id,omitempty"`
	CorrelationID string    `bson:"correlation_id,omitempty"`
	OccurredAt    time.Time `bson:"occurred_at"`
	Payload       string    `bson:"payload"`
	ArchivedAt    time.Time `bson:"archived_at"`
}

func toDocument(evt *event.LedgerEvent, archivedAt time.Time) eventDocument {
	return eventDocument{
		EventID:       evt.EventID.String(),
		Type:          string(evt.Type),
		AggregateType: evt.AggregateType,
		AggregateID:   evt.AggregateID,
		ActorID:       evt.ActorID,
		CorrelationID: evt.CorrelationID,
		OccurredAt:    evt.OccurredAt.UTC(),
		Payload:       string(evt.Payload),
		ArchivedAt:    archivedAt,
	}
}

func (d eventDocument) toEvent() (*event.LedgerEvent, error) {
	id, err := uuid.Parse(d.EventID)
	if err != nil {
		return nil, fmt.Errorf("invalid archived event id %q: %w", d.EventID, err)
	}
	evt := &event.LedgerEvent{
		EventID:       id,
		Type:          event.Type(d.Type),
		AggregateType: d.AggregateType,
		AggregateID:   d.AggregateID,
		ActorID:       d.ActorID,
		CorrelationID: d.CorrelationID,
		OccurredAt:    d.OccurredAt,
	}
	if d.Payload != "" {
		evt.Payload = json.RawMessage(d.Payload)
	}
	return evt, nil
}

// EventArchive implements the event.Archive interface for MongoDB
type EventArchive struct {
	db     *mongo.Database
	logger *slog.Logger
}

// NewEventArchive creates a new MongoDB event archive
func NewEventArchive(logger *slog.Logger, db *mongo.Database) *EventArchive {
	return &EventArchive{
		db:     db,
		logger: logger,
	}
}

// EnsureIndexes creates the unique event id index and the aggregate lookup index
func (r *EventArchive) EnsureIndexes(ctx context.Context) error {
	collection := r.db.Collection(EventCollectionName)

	_, err := collection.Indexes().CreateMany(ctx, []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "event_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "aggregate_id", Value: 1}, {Key: "occurred_at", Value: 1}},
		},
	})
	if err != nil {
		r.logger.Error("Failed to create event archive indexes", "error", err)
		return fmt.Errorf("failed to create event archive indexes: %w", err)
	}

	return nil
}

// Save stores a ledger event. The unique index on event_id turns redelivered
// events into ErrDuplicateEvent.
func (r *EventArchive) Save(ctx context.Context, evt *event.LedgerEvent) error {
	collection := r.db.Collection(EventCollectionName)

	_, err := collection.InsertOne(ctx, toDocument(evt, time.Now().UTC()))
	if err != nil {
		if mongo.IsDuplicateKeyError(err) {
			return event.ErrDuplicateEvent{EventID: evt.EventID}
		}
		r.logger.Error("Failed to archive ledger event",
			"event_id", evt.EventID.String(),
			"error", err)
		return fmt.Errorf("failed to archive ledger event: %w", err)
	}

	return nil
}

// GetByEventID retrieves an archived event.
// Returns ErrEventNotFound if the event was never archived.
func (r *EventArchive) GetByEventID(ctx context.Context, eventID uuid.UUID) (*event.LedgerEvent, error) {
	collection := r.db.Collection(EventCollectionName)

	filter := bson.M{"event_id": eventID.String()}
	var doc eventDocument
	err := collection.FindOne(ctx, filter).Decode(&doc)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, event.ErrEventNotFound{EventID: eventID}
		}
		r.logger.Error("Failed to get archived event",
			"event_id", eventID.String(),
			"error", err)
		return nil, fmt.Errorf("failed to get archived event: %w", err)
	}

	return doc.toEvent()
}

// ListByAggregate retrieves the events of one aggregate in the order they occurred
func (r *EventArchive) ListByAggregate(ctx context.Context, aggregateID string, limit int) ([]*event.LedgerEvent, error) {
	collection := r.db.Collection(EventCollectionName)

	filter := bson.M{"aggregate_id": aggregateID}
	opts := options.Find().SetSort(bson.D{{Key: "occurred_at", Value: 1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cursor, err := collection.Find(ctx, filter, opts)
	if err != nil {
		r.logger.Error("Failed to list archived events",
			"aggregate_id", aggregateID,
			"error", err)
		return nil, fmt.Errorf("failed to list archived events: %w", err)
	}
	defer cursor.Close(ctx)

	var docs []eventDocument
	if err := cursor.All(ctx, &docs); err != nil {
		r.logger.Error("Failed to decode archived events",
			"aggregate_id", aggregateID,
			"error", err)
		return nil, fmt.Errorf("failed to decode archived events: %w", err)
	}

	events := make([]*event.LedgerEvent, 0, len(docs))
	for _, doc := range docs {
		evt, err := doc.toEvent()
		if err != nil {
			return nil, err
		}
		events = append(events, evt)
	}

	return events, nil
}
