package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/coop-bookkeeping/internal/config"
	"github.com/coop-bookkeeping/internal/data/mongo"
	"github.com/coop-bookkeeping/internal/data/postgres"
	"github.com/coop-bookkeeping/internal/logger"
	"github.com/coop-bookkeeping/internal/platform/messaging/consumers"
	"github.com/coop-bookkeeping/internal/platform/messaging/producers"
	"github.com/coop-bookkeeping/internal/platform/persistence"
	"github.com/coop-bookkeeping/internal/year_closer/consumer"
	"github.com/coop-bookkeeping/internal/year_closer/service"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("year_closer")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)

	log.Info("Starting year-close worker",
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

	accountRepo := postgres.NewAccountRepository(log, postgresDB)
	journalRepo := postgres.NewJournalRepository(log, postgresDB)
	historyRepo := postgres.NewHistoryRepository(log, postgresDB)
	fiscalYearRepo := postgres.NewFiscalYearRepository(log, postgresDB)
	eventRepo := postgres.NewEventRepository(log, postgresDB)
	auditRepo := mongo.NewAuditRepository(log, mongoDB.Database())

	kafkaConsumer := consumers.NewKafkaConsumer(appCtx, log, &cfg.Kafka)

	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	// dlqProducer might be nil if DLQTopic is not configured. Handler is nil-safe.

	snapshotPool, err := service.NewSnapshotPool(cfg.WorkerPool, journalRepo, log)
	if err != nil {
		log.Error("Failed to initialize snapshot worker pool", "error", err)
		os.Exit(1)
	}

	closeService := service.NewCloseService(
		log,
		postgresDB,
		accountRepo,
		journalRepo,
		historyRepo,
		fiscalYearRepo,
		eventRepo,
		auditRepo,
		snapshotPool,
	)

	closeEventHandler := consumer.NewCloseEventHandler(log, closeService, dlqProducer)

	errChan := make(chan error, 1)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Info("Starting Kafka consumer",
			"topic", cfg.Kafka.CloseTopic,
			"group", cfg.Kafka.ConsumerGroup,
		)
		if err := kafkaConsumer.Subscribe(appCtx, cfg.Kafka.CloseTopic, cfg.Kafka.ConsumerGroup, closeEventHandler.HandleMessage); err != nil {
			errChan <- fmt.Errorf("kafka consumer error: %w", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	var serviceErr error
	select {
	case <-quit:
		log.Info("Shutdown signal received")
	case err := <-errChan:
		log.Error("Service error occurred", "error", err)
		serviceErr = err
	}

	cancelAppCtx()

	snapshotPool.Shutdown()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	log.Info("Starting graceful shutdown...")

	log.Info("Waiting for services to stop...")
	wgChan := make(chan struct{})
	go func() {
		wg.Wait()
		close(wgChan)
	}()

	select {
	case <-wgChan:
		log.Info("All services stopped successfully")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	if dlqProducer != nil { // dlqProducer can be nil if DLQTopic was not configured
		if err = dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
		}
	}

	if err = kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
	}

	postgresDB.Close()

	if err = mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
	}

	if serviceErr != nil {
		log.Error("Year-close worker shutdown with errors", "error", serviceErr)
	}
	if err != nil {
		log.Error("Year-close worker shutdown completed with errors")
	} else {
		log.Info("Year-close worker shutdown completed successfully")
	}
}
