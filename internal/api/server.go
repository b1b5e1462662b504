package api

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/coop-bookkeeping/internal/api/handler"
	"github.com/coop-bookkeeping/internal/api/service"
	"github.com/coop-bookkeeping/internal/config"
)

// Server handles HTTP requests and manages the application's lifecycle
type Server struct {
	logger     *slog.Logger
	httpServer *http.Server
	httpRouter *gin.Engine
}

// Services groups the application services exposed over HTTP.
type Services struct {
	Accounts    service.AccountService
	Entries     service.EntryService
	Reconcile   service.ReconcileService
	History     service.HistoryService
	Events      service.EventService
	FiscalYears service.FiscalYearService
	Audit       service.AuditService
}

// NewServer creates and configures a new HTTP server with the given services
func NewServer(log *slog.Logger, cfg *config.Config, services Services) *Server {
	if cfg.Application.Env == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	httpRouter := gin.New()

	accountHandler := handler.NewAccountHandler(log, services.Accounts)
	entryHandler := handler.NewEntryHandler(log, services.Entries)
	reconcileHandler := handler.NewReconcileHandler(log, services.Reconcile)
	historyHandler := handler.NewHistoryHandler(log, services.History)
	eventHandler := handler.NewEventHandler(log, services.Events)
	fiscalYearHandler := handler.NewFiscalYearHandler(log, services.FiscalYears)
	auditHandler := handler.NewAuditHandler(log, services.Audit)

	setupRouter(log, httpRouter, accountHandler, entryHandler, reconcileHandler, historyHandler, eventHandler, fiscalYearHandler, auditHandler)

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      httpRouter,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	return &Server{
		logger:     log,
		httpServer: httpServer,
		httpRouter: httpRouter,
	}
}

// Start begins listening for HTTP requests
func (s *Server) Start() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("failed to start HTTP server: %w", err)
	}
	return nil
}

// Stop gracefully shuts down the HTTP server with a timeout
func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("stopping HTTP server")

	shutdownCtx, cancel := context.WithTimeout(ctx, s.httpServer.WriteTimeout)
	defer cancel()

	if err := s.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("failed to stop HTTP server: %w", err)
	}

	return nil
}
