package handler

import (
	"log/slog"

	"github.com/cash-register-ledger/internal/ledger/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// ClosingHandler handles HTTP requests for agreement totals and settlements
type ClosingHandler struct {
	closingService service.ClosingService
	logger         *slog.Logger
}

// NewClosingHandler creates a new closing handler
func NewClosingHandler(logger *slog.Logger, closingService service.ClosingService) *ClosingHandler {
	return &ClosingHandler{
		closingService: closingService,
		logger:         logger,
	}
}

// OpenTotals aggregates unsettled agreement movements per company
func (h *ClosingHandler) OpenTotals(c *gin.Context) {
	var params DateRangeParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Warn("Invalid query parameters", "error", err)
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	totals, err := h.closingService.ListOpenTotals(c.Request.Context(), service.OpenTotalsQuery{
		EndDate:   params.EndDate,
		CompanyID: optionalUUID(params.CompanyID),
	})
	if err != nil {
		respondServiceError(c, h.logger, "list open totals", err)
		return
	}

	RespondList(c, totals, len(totals))
}

// GroupedTotals aggregates all agreement movements of a period per company
func (h *ClosingHandler) GroupedTotals(c *gin.Context) {
	var params DateRangeParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Warn("Invalid query parameters", "error", err)
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	totals, err := h.closingService.ListGroupedTotals(c.Request.Context(), service.GroupedTotalsQuery{
		StartDate: params.StartDate,
		EndDate:   params.EndDate,
		CompanyID: optionalUUID(params.CompanyID),
	})
	if err != nil {
		respondServiceError(c, h.logger, "list grouped totals", err)
		return
	}

	RespondList(c, totals, len(totals))
}

// OpenMovements lists the unsettled agreement movements of one company
func (h *ClosingHandler) OpenMovements(c *gin.Context) {
	id, ok := h.uuidParam(c, "companyId", "Invalid company ID")
	if !ok {
		return
	}

	movements, err := h.closingService.ListOpenMovements(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, "list open movements", err)
		return
	}

	RespondList(c, movements, len(movements))
}

// Perform settles a company's open agreements up to the end of the given day
func (h *ClosingHandler) Perform(c *gin.Context) {
	var req PerformClosingRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	companyID, err := uuid.Parse(req.CompanyID)
	if err != nil {
		RespondBadRequest(c, "Invalid company ID")
		return
	}

	cl, err := h.closingService.PerformClosing(c.Request.Context(), service.PerformClosingInput{
		CompanyID: companyID,
		EndDate:   req.EndDate,
	})
	if err != nil {
		respondServiceError(c, h.logger, "perform closing", err)
		return
	}

	RespondCreated(c, cl)
}

// GetByID retrieves a closing by its ID
func (h *ClosingHandler) GetByID(c *gin.Context) {
	id, ok := h.uuidParam(c, "id", "Invalid closing ID")
	if !ok {
		return
	}

	cl, err := h.closingService.GetClosing(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, "get closing", err)
		return
	}

	RespondOK(c, cl)
}

// List lists closings newest first, optionally for one company
func (h *ClosingHandler) List(c *gin.Context) {
	companyParam := c.Query("company_id")
	var companyID *uuid.UUID
	if companyParam != "" {
		id, err := uuid.Parse(companyParam)
		if err != nil {
			RespondBadRequest(c, "Invalid company ID")
			return
		}
		companyID = &id
	}

	closings, err := h.closingService.ListClosings(c.Request.Context(), companyID)
	if err != nil {
		respondServiceError(c, h.logger, "list closings", err)
		return
	}

	RespondList(c, closings, len(closings))
}

func (h *ClosingHandler) uuidParam(c *gin.Context, name, message string) (uuid.UUID, bool) {
	value := c.Param(name)
	id, err := uuid.Parse(value)
	if err != nil {
		h.logger.Warn(message, name, value, "error", err)
		RespondBadRequest(c, message)
		return uuid.Nil, false
	}
	return id, true
}
