package audit

import "context"

// Repository is the append-only audit store
type Repository interface {
	Create(ctx context.Context, entry *Entry) error
	// Find returns matching entries newest first. An EffectiveLimit of 0 is unbounded.
	Find(ctx context.Context, filter Filter) ([]*Entry, error)
}
