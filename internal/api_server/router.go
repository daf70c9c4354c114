package api_server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/cash-register-ledger/internal/api_server/handler"
	"github.com/cash-register-ledger/internal/api_server/middleware"
	"github.com/cash-register-ledger/internal/ledger/components"
	"github.com/cash-register-ledger/internal/platform/observability"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	services *components.Services,
	metrics *observability.Metrics,
	exposeMetrics bool,
) {
	registerHandler := handler.NewRegisterHandler(logger, services.Registers)
	companyHandler := handler.NewCompanyHandler(logger, services.Companies)
	movementHandler := handler.NewMovementHandler(logger, services.Movements)
	closingHandler := handler.NewClosingHandler(logger, services.Closings)
	auditHandler := handler.NewAuditHandler(logger, services.Audit)
	eventHandler := handler.NewEventHandler(logger, services.Events)

	r.Use(middleware.Recovery(logger))
	r.Use(middleware.CorrelationID())
	r.Use(middleware.Logger(logger))
	r.Use(middleware.Metrics(metrics))

	// API v1 endpoints, all on behalf of an identified operator
	v1 := r.Group("/api/v1", middleware.Identity())
	{
		registers := v1.Group("/registers")
		{
			registers.GET("/today", registerHandler.GetToday)
			registers.POST("/start", registerHandler.StartDay)
			registers.POST("/today/close", registerHandler.CloseDay)
			registers.GET("/summary", registerHandler.GetSummary)
		}

		movements := v1.Group("/movements")
		{
			movements.POST("", movementHandler.Create)
			movements.GET("", movementHandler.ListToday)
			movements.GET("/history", movementHandler.ListHistory)
			movements.DELETE("/:id", movementHandler.Delete)
		}

		companies := v1.Group("/companies")
		{
			companies.POST("", companyHandler.Create)
			companies.GET("", companyHandler.ListActive)
			companies.GET("/:id", companyHandler.GetByID)
			companies.PATCH("/:id/status", companyHandler.SetStatus)
			companies.PATCH("/:id/price", companyHandler.UpdatePrice)
		}

		closings := v1.Group("/closings")
		{
			closings.GET("/open-totals", closingHandler.OpenTotals)
			closings.GET("/totals", closingHandler.GroupedTotals)
			closings.GET("/open-movements/:companyId", closingHandler.OpenMovements)
			closings.POST("", closingHandler.Perform)
			closings.GET("", closingHandler.List)
			closings.GET("/:id", closingHandler.GetByID)
		}

		auditTrail := v1.Group("/audit")
		{
			auditTrail.GET("", auditHandler.Query)
			auditTrail.GET("/entity/:entity/:id", auditHandler.ByEntity)
			auditTrail.GET("/user/:userId", auditHandler.ByUser)
		}

		v1.GET("/events/:aggregateId", eventHandler.ListByAggregate)
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})

	if exposeMetrics {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(metrics.Registry, promhttp.HandlerOpts{})))
	}
}
