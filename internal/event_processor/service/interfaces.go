package service

import (
	"context"

	"github.com/cash-register-ledger/internal/domain/event"
)

// ArchiveService stores relayed ledger events
type ArchiveService interface {
	// ArchiveEvent stores evt. Redelivered events are accepted without error.
	ArchiveEvent(ctx context.Context, evt *event.LedgerEvent) error
}

// ArchiveMetrics counts archiver outcomes
type ArchiveMetrics interface {
	IncrArchived(result string)
}
