package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/coop-bookkeeping/internal/api"
	"github.com/coop-bookkeeping/internal/api/service"
	"github.com/coop-bookkeeping/internal/cache"
	"github.com/coop-bookkeeping/internal/config"
	"github.com/coop-bookkeeping/internal/data/mongo"
	"github.com/coop-bookkeeping/internal/data/postgres"
	"github.com/coop-bookkeeping/internal/logger"
	"github.com/coop-bookkeeping/internal/platform/messaging/producers"
	"github.com/coop-bookkeeping/internal/platform/persistence"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("api_server")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting bookkeeping API server",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	postgresDB, err := persistence.NewPostgresDB(appCtx, log, &cfg.Postgres)
	if err != nil {
		log.Error("Failed to initialize PostgreSQL", "error", err)
		os.Exit(1)
	}

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	// Producer carrying fiscal-year close requests to the worker.
	closeProducer, err := producers.NewCloseRequestProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize close request producer", "error", err)
		os.Exit(1)
	}

	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	journalRepo := postgres.NewJournalRepository(log, postgresDB)
	historyRepo := postgres.NewHistoryRepository(log, postgresDB)
	fiscalYearRepo := postgres.NewFiscalYearRepository(log, postgresDB)
	eventRepo := postgres.NewEventRepository(log, postgresDB)
	auditRepo := mongo.NewAuditRepository(log, mongoDB.Database())

	balanceCache := cache.NewTTLCache[uuid.UUID, decimal.Decimal]()

	accountService := service.NewAccountService(accountRepo, journalRepo, balanceCache, cfg.BalanceCache.TTL)
	entryService := service.NewEntryService(log, postgresDB, journalRepo, accountRepo, fiscalYearRepo, auditRepo, accountService)
	reconcileService := service.NewReconcileService(log, postgresDB, accountRepo, journalRepo, auditRepo)
	historyService := service.NewHistoryService(historyRepo)
	eventService := service.NewEventService(eventRepo, journalRepo)
	fiscalYearService := service.NewFiscalYearService(log, fiscalYearRepo, closeProducer, auditRepo)
	auditService := service.NewAuditService(auditRepo)

	server := api.NewServer(log, cfg, api.Services{
		Accounts:    accountService,
		Entries:     entryService,
		Reconcile:   reconcileService,
		History:     historyService,
		Events:      eventService,
		FiscalYears: fiscalYearService,
		Audit:       auditService,
	})
	log.Info("REST server initialized")

	errChan := make(chan error, 1)

	go func() {
		log.Info("Starting HTTP server", "port", cfg.Server.Port)
		if err := server.Start(); err != nil {
			errChan <- fmt.Errorf("HTTP server error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serverErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Server error occurred", "error", err)
		serverErr = err
	}

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	if err = server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
	}

	if err = closeProducer.Close(); err != nil {
		log.Error("Error closing close request producer", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serverErr != nil {
		log.Error("HTTP server shutdown with errors", "error", serverErr)
	}
	if err != nil {
		log.Error("Server shutdown completed with errors")
	} else {
		log.Info("Server shutdown completed successfully")
	}
}
