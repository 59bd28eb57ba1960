package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/corp-qr-hub/internal/config"
	"github.com/corp-qr-hub/internal/data/mongo"
	"github.com/corp-qr-hub/internal/logger"
	"github.com/corp-qr-hub/internal/platform/messaging/consumers"
	"github.com/corp-qr-hub/internal/platform/messaging/producers"
	"github.com/corp-qr-hub/internal/platform/persistence"
	"github.com/corp-qr-hub/internal/scan_archiver/consumer"
	"github.com/corp-qr-hub/internal/scan_archiver/service"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("scan_archiver")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	if err := cfg.ValidateArchiver(); err != nil {
		fmt.Printf("Invalid scan archiver configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	log.Info("Starting Scan Archiver",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
	)

	mongoDB, err := persistence.NewMongoDB(appCtx, log, &cfg.MongoDB)
	if err != nil {
		log.Error("Failed to initialize MongoDB", "error", err)
		os.Exit(1)
	}

	archiveRepo := mongo.NewScanArchiveRepository(log, mongoDB.Collection(cfg.MongoDB.ArchiveCollection))
	if err := archiveRepo.EnsureIndexes(appCtx); err != nil {
		log.Error("Failed to create archive indexes", "error", err)
		os.Exit(1)
	}

	archiveService, err := service.NewWorkerPoolArchiveService(
		service.NewArchiveService(log, archiveRepo),
		cfg.WorkerPool.Size,
		log,
	)
	if err != nil {
		log.Error("Failed to initialize worker pool", "error", err)
		os.Exit(1)
	}

	// The DLQ stays disabled when KAFKA_DLQ_TOPIC is empty.
	var dlq producers.DeadLetterPublisher
	dlqProducer, err := producers.NewDLQProducer(appCtx, log, &cfg.Kafka)
	if err != nil {
		log.Error("Failed to initialize DLQ Kafka producer", "error", err)
		os.Exit(1)
	}
	if dlqProducer != nil {
		dlq = dlqProducer
	}

	handler := consumer.NewScanEventHandler(log, archiveService, dlq)

	kafkaConsumer := consumers.NewKafkaConsumer(log, &cfg.Kafka)
	if err := kafkaConsumer.Subscribe(appCtx, handler.HandleMessage); err != nil {
		log.Error("Failed to subscribe to scan events", "error", err)
		os.Exit(1)
	}
	log.Info("Consuming scan events",
		"topic", cfg.Kafka.ScanTopic,
		"group", cfg.Kafka.ConsumerGroup,
		"workers", archiveService.Capacity(),
	)

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)
	<-quit
	log.Info("Shutdown signal received")

	cancelAppCtx()

	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancelShutdown()

	log.Info("Waiting for the consumer to stop...")
	select {
	case <-kafkaConsumer.Done():
		log.Info("Consumer stopped")
	case <-shutdownCtx.Done():
		log.Warn("Shutdown timeout reached, forcing exit")
	}

	log.Info("Shutting down worker pool", "running_workers", archiveService.Running())
	archiveService.Shutdown()

	var shutdownErr error
	if dlqProducer != nil {
		if err := dlqProducer.Close(); err != nil {
			log.Error("Error closing DLQ Kafka producer", "error", err)
			shutdownErr = err
		}
	}
	if err := kafkaConsumer.Close(); err != nil {
		log.Error("Error closing Kafka consumer", "error", err)
		shutdownErr = err
	}
	if err := mongoDB.Close(shutdownCtx); err != nil {
		log.Error("Error closing MongoDB connection", "error", err)
		shutdownErr = err
	}

	if shutdownErr != nil {
		log.Error("Scan Archiver shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Scan Archiver shutdown completed successfully")
}
