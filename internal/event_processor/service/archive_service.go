package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/cash-register-ledger/internal/domain/event"
)

// ArchiveServiceImpl writes ledger events to the event archive
type ArchiveServiceImpl struct {
	archive event.Archive
	metrics ArchiveMetrics
	logger  *slog.Logger
}

func NewArchiveService(archive event.Archive, metrics ArchiveMetrics, logger *slog.Logger) ArchiveService {
	return &ArchiveServiceImpl{
		archive: archive,
		metrics: metrics,
		logger:  logger,
	}
}

// ArchiveEvent saves the event. The relay delivers at least once, so an event that
// is already archived counts as success.
func (s *ArchiveServiceImpl) ArchiveEvent(ctx context.Context, evt *event.LedgerEvent) error {
	logger := s.logger
	if evt.CorrelationID != "" {
		logger = s.logger.With("correlation_id", evt.CorrelationID)
	}

	if err := s.archive.Save(ctx, evt); err != nil {
		if errors.Is(err, event.ErrDuplicateEvent{}) {
			logger.Info("Ledger event already archived", "event_id", evt.EventID.String())
			s.metrics.IncrArchived("duplicate")
			return nil
		}
		s.metrics.IncrArchived("error")
		return fmt.Errorf("failed to archive ledger event %s: %w", evt.EventID, err)
	}

	s.metrics.IncrArchived("stored")
	logger.Info("Archived ledger event",
		"event_id", evt.EventID.String(),
		"type", evt.Type,
		"aggregate_id", evt.AggregateID,
	)
	return nil
}
