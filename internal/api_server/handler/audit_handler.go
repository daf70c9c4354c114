package handler

import (
	"log/slog"

	"github.com/cash-register-ledger/internal/domain/shared"
	"github.com/cash-register-ledger/internal/ledger/service"
	"github.com/gin-gonic/gin"
)

// AuditHandler handles HTTP requests for the audit trail
type AuditHandler struct {
	auditService service.AuditService
	logger       *slog.Logger
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(logger *slog.Logger, auditService service.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
		logger:       logger,
	}
}

// Query filters the audit trail
func (h *AuditHandler) Query(c *gin.Context) {
	var params AuditParams
	if err := c.ShouldBindQuery(&params); err != nil {
		h.logger.Warn("Invalid query parameters", "error", err)
		RespondBadRequest(c, "Invalid query parameters: "+err.Error())
		return
	}

	entries, err := h.auditService.Query(c.Request.Context(), service.AuditQuery{
		UserID:    params.UserID,
		Entity:    params.Entity,
		EntityID:  params.EntityID,
		Action:    shared.AuditAction(params.Action),
		StartDate: params.StartDate,
		EndDate:   params.EndDate,
		Limit:     params.Limit,
	})
	if err != nil {
		respondServiceError(c, h.logger, "query audit trail", err)
		return
	}

	RespondList(c, entries, len(entries))
}

// ByEntity returns the complete history of one entity
func (h *AuditHandler) ByEntity(c *gin.Context) {
	entries, err := h.auditService.FindByEntity(c.Request.Context(), c.Param("entity"), c.Param("id"))
	if err != nil {
		respondServiceError(c, h.logger, "find audit entries by entity", err)
		return
	}

	RespondList(c, entries, len(entries))
}

// ByUser returns the latest actions of one operator
func (h *AuditHandler) ByUser(c *gin.Context) {
	entries, err := h.auditService.FindByUser(c.Request.Context(), c.Param("userId"))
	if err != nil {
		respondServiceError(c, h.logger, "find audit entries by user", err)
		return
	}

	RespondList(c, entries, len(entries))
}
