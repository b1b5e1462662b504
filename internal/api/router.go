package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/coop-bookkeeping/internal/api/handler"
	"github.com/coop-bookkeeping/internal/api/middleware"
)

// setupRouter configures API routes and middleware for the application
func setupRouter(
	logger *slog.Logger,
	r *gin.Engine,
	accountHandler *handler.AccountHandler,
	entryHandler *handler.EntryHandler,
	reconcileHandler *handler.ReconcileHandler,
	historyHandler *handler.HistoryHandler,
	eventHandler *handler.EventHandler,
	fiscalYearHandler *handler.FiscalYearHandler,
	auditHandler *handler.AuditHandler,
) {
	r.Use(middleware.Recovery(logger))
	r.Use(middleware.Logger(logger))
	r.Use(middleware.CorrelationID())

	// API v1 endpoints
	v1 := r.Group("/api/v1")
	{
		// Chart of accounts and per-account ledgers
		accounts := v1.Group("/accounts")
		{
			accounts.POST("", accountHandler.Create)
			accounts.GET("", accountHandler.Chart)
			accounts.GET("/:slug", accountHandler.Ledger)
			accounts.GET("/:slug/transactions", accountHandler.Transactions)
			accounts.GET("/:slug/reconcile/candidates", reconcileHandler.Candidates)
			accounts.POST("/:slug/reconcile/preview", reconcileHandler.Preview)
			accounts.POST("/:slug/reconcile", reconcileHandler.Commit)
		}

		// Journal entry operations
		entries := v1.Group("/entries")
		{
			entries.POST("", entryHandler.Post)
			entries.POST("/transfer", entryHandler.Transfer)
			entries.GET("/:id", entryHandler.Get)
			entries.POST("/:id/void", entryHandler.Void)
		}

		// Archived monthly figures
		v1.GET("/history/:year/:month", historyHandler.Month)

		// Events
		events := v1.Group("/events")
		{
			events.POST("", eventHandler.Create)
			events.GET("", eventHandler.List)
			events.GET("/:id", eventHandler.Get)
		}

		// Fiscal year administration
		fiscalYears := v1.Group("/fiscal-years")
		{
			fiscalYears.POST("", fiscalYearHandler.RequestClose)
			fiscalYears.GET("/current", fiscalYearHandler.Current)
		}

		// Audit trail queries
		auditRecords := v1.Group("/audit")
		{
			auditRecords.GET("", auditHandler.ByTimeRange)
			auditRecords.GET("/subjects/:id", auditHandler.BySubject)
		}
	}

	// Health check endpoint for monitoring
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "timestamp": time.Now().UTC()})
	})
}
