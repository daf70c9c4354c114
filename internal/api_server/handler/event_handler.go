package handler

import (
	"log/slog"

	"github.com/cash-register-ledger/internal/ledger/service"
	"github.com/gin-gonic/gin"
)

// EventHandler handles HTTP requests for archived ledger events
type EventHandler struct {
	eventService service.EventService
	logger       *slog.Logger
}

// NewEventHandler creates a new event handler
func NewEventHandler(logger *slog.Logger, eventService service.EventService) *EventHandler {
	return &EventHandler{
		eventService: eventService,
		logger:       logger,
	}
}

// ListByAggregate lists the archived events of one aggregate, oldest first
func (h *EventHandler) ListByAggregate(c *gin.Context) {
	var params EventParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Warn("Invalid query parameters", "error", err)
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	events, err := h.eventService.ListByAggregate(c.Request.Context(), c.Param("aggregateId"), params.Limit)
	if err != nil {
		respondServiceError(c, h.logger, "list ledger events", err)
		return
	}

	RespondList(c, events, len(events))
}
