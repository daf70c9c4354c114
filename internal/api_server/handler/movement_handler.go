package handler

import (
	"log/slog"

	"github.com/cash-register-ledger/internal/ledger/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// MovementHandler handles HTTP requests for register movements
type MovementHandler struct {
	movementService service.MovementService
	logger          *slog.Logger
}

// NewMovementHandler creates a new movement handler
func NewMovementHandler(logger *slog.Logger, movementService service.MovementService) *MovementHandler {
	return &MovementHandler{
		movementService: movementService,
		logger:          logger,
	}
}

// Create records a movement in today's open register
func (h *MovementHandler) Create(c *gin.Context) {
	var req CreateMovementRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	m, err := h.movementService.CreateMovement(c.Request.Context(), service.CreateMovementInput{
		Type:         req.Type,
		CompanyID:    req.CompanyID,
		ItemCategory: req.ItemCategory,
		Consumer:     req.Consumer,
		Description:  req.Description,
		Quantity:     req.Quantity,
		Amount:       req.Amount,
	})
	if err != nil {
		respondServiceError(c, h.logger, "create movement", err)
		return
	}

	RespondCreated(c, m)
}

// Delete removes an unsettled movement of today's register
func (h *MovementHandler) Delete(c *gin.Context) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Warn("Invalid movement ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid movement ID")
		return
	}

	if err := h.movementService.DeleteMovement(c.Request.Context(), id); err != nil {
		respondServiceError(c, h.logger, "delete movement", err)
		return
	}

	RespondNoContent(c)
}

// ListToday lists today's movements, newest first
func (h *MovementHandler) ListToday(c *gin.Context) {
	movements, err := h.movementService.ListToday(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, "list today's movements", err)
		return
	}

	RespondList(c, movements, len(movements))
}

// ListHistory lists movements between two calendar days
func (h *MovementHandler) ListHistory(c *gin.Context) {
	var params DateRangeParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Warn("Invalid query parameters", "error", err)
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	movements, err := h.movementService.ListHistory(c.Request.Context(), service.HistoryQuery{
		StartDate: params.StartDate,
		EndDate:   params.EndDate,
		CompanyID: optionalUUID(params.CompanyID),
	})
	if err != nil {
		respondServiceError(c, h.logger, "list movement history", err)
		return
	}

	RespondList(c, movements, len(movements))
}
