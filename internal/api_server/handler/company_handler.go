package handler

import (
	"log/slog"

	"github.com/cash-register-ledger/internal/ledger/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// CompanyHandler handles HTTP requests for partner companies
type CompanyHandler struct {
	companyService service.CompanyService
	logger         *slog.Logger
}

// NewCompanyHandler creates a new company handler
func NewCompanyHandler(logger *slog.Logger, companyService service.CompanyService) *CompanyHandler {
	return &CompanyHandler{
		companyService: companyService,
		logger:         logger,
	}
}

// Create registers a new partner company
func (h *CompanyHandler) Create(c *gin.Context) {
	var req CreateCompanyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	comp, err := h.companyService.CreateCompany(c.Request.Context(), service.CreateCompanyInput{
		Name:        req.Name,
		PriceUnit:   *req.PriceUnit,
		BillingType: req.BillingType,
	})
	if err != nil {
		respondServiceError(c, h.logger, "create company", err)
		return
	}

	RespondCreated(c, comp)
}

// ListActive lists the companies that accept agreement movements
func (h *CompanyHandler) ListActive(c *gin.Context) {
	companies, err := h.companyService.ListActiveCompanies(c.Request.Context())
	if err != nil {
		respondServiceError(c, h.logger, "list companies", err)
		return
	}

	RespondList(c, companies, len(companies))
}

// GetByID retrieves a company by its ID, returning 404 if not found
func (h *CompanyHandler) GetByID(c *gin.Context) {
	id, ok := h.companyID(c)
	if !ok {
		return
	}

	comp, err := h.companyService.GetCompany(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, h.logger, "get company", err)
		return
	}

	RespondOK(c, comp)
}

// SetStatus activates or deactivates a company
func (h *CompanyHandler) SetStatus(c *gin.Context) {
	id, ok := h.companyID(c)
	if !ok {
		return
	}

	var req SetCompanyStatusRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	comp, err := h.companyService.SetCompanyActive(c.Request.Context(), id, service.SetActiveInput{Active: req.Active})
	if err != nil {
		respondServiceError(c, h.logger, "update company status", err)
		return
	}

	RespondOK(c, comp)
}

// UpdatePrice changes the meal price applied to future agreement movements
func (h *CompanyHandler) UpdatePrice(c *gin.Context) {
	id, ok := h.companyID(c)
	if !ok {
		return
	}

	var req UpdateCompanyPriceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.logger.Warn("Invalid request body", "error", err)
		RespondBadRequest(c, "Invalid request body: "+err.Error())
		return
	}

	comp, err := h.companyService.UpdateCompanyPrice(c.Request.Context(), id, service.UpdatePriceInput{PriceUnit: *req.PriceUnit})
	if err != nil {
		respondServiceError(c, h.logger, "update company price", err)
		return
	}

	RespondOK(c, comp)
}

func (h *CompanyHandler) companyID(c *gin.Context) (uuid.UUID, bool) {
	idParam := c.Param("id")
	id, err := uuid.Parse(idParam)
	if err != nil {
		h.logger.Warn("Invalid company ID", "id", idParam, "error", err)
		RespondBadRequest(c, "Invalid company ID")
		return uuid.Nil, false
	}
	return id, true
}
