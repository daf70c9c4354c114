package handler

import (
	"log/slog"

	"github.com/cash-register-ledger/internal/ledger/service"
	"github.com/gin-gonic/gin"
)

// RegisterHandler handles HTTP requests for the daily register
type RegisterHandler struct {
	registerService service.RegisterService
	logger          *slog.Logger
}

// NewRegisterHandler creates a new register handler
func NewRegisterHandler(logger *slog.Logger, registerService service.RegisterService) *RegisterHandler {
	return &RegisterHandler{
		registerService: registerService,
		logger:          logger,
	}
}

// GetToday returns today's register state. A day that has not been started is not an error.
func (h *RegisterHandler) GetToday(c *gin.Context) {
	view, err := h.registerService.GetToday(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, "get today's register", err)
		return
	}

	RespondOK(c, view)
}

// StartDay opens today's register, answering 201 when this call created it and 200
// when it already existed
func (h *RegisterHandler) StartDay(c *gin.Context) {
	var req StartDayRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	reg, created, err := h.registerService.StartDay(c.Request.Context(), service.StartDayInput{
		OpeningBalance: *req.OpeningBalance,
	})
	if err != nil {
		respondServiceError(c, h.logger, "start day", err)
		return
	}

	if created {
		RespondCreated(c, reg)
		return
	}
	RespondOK(c, reg)
}

// CloseDay closes today's register and returns its final summary
func (h *RegisterHandler) CloseDay(c *gin.Context) {
	summary, err := h.registerService.CloseDay(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, "close day", err)
		return
	}

	RespondOK(c, summary)
}

// GetSummary totals the register of the requested day, today by default
func (h *RegisterHandler) GetSummary(c *gin.Context) {
	summary, err := h.registerService.GetDaySummary(c.Request.Context(), c.Query("date"))
	if err != nil {
		respondServiceError(c, h.logger, "get day summary", err)
		return
	}

	RespondOK(c, summary)
}
