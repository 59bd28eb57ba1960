package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/corp-qr-hub/internal/config"
	"github.com/corp-qr-hub/internal/dashboard"
	"github.com/corp-qr-hub/internal/dashboard/service"
	"github.com/corp-qr-hub/internal/data/memory"
	"github.com/corp-qr-hub/internal/data/mongo"
	"github.com/corp-qr-hub/internal/data/postgres"
	"github.com/corp-qr-hub/internal/data/s3store"
	"github.com/corp-qr-hub/internal/data/sqlite"
	"github.com/corp-qr-hub/internal/domain/entry"
	"github.com/corp-qr-hub/internal/logger"
	"github.com/corp-qr-hub/internal/platform/messaging/producers"
	"github.com/corp-qr-hub/internal/platform/persistence"
	"github.com/corp-qr-hub/internal/render"
	"github.com/corp-qr-hub/internal/store"
)

func main() {
	appCtx, cancelAppCtx := context.WithCancel(context.Background())
	defer cancelAppCtx()

	cfg, err := config.LoadConfig("qrhub")
	if err != nil {
		// logger is not initialized yet, so we use fmt
		fmt.Printf("Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	log := logger.NewLogger(cfg)
	log.Info("Starting QR Hub",
		"app_name", cfg.Application.Name,
		"env", cfg.Application.Env,
		"storage_driver", cfg.Storage.Driver,
	)

	repo, closeRepo, err := openRepository(appCtx, log, cfg)
	if err != nil {
		log.Error("Failed to initialize storage", "driver", cfg.Storage.Driver, "error", err)
		os.Exit(1)
	}

	entryStore := store.NewStore(log, repo, cfg.Storage.Key)
	if err := entryStore.Load(appCtx); err != nil {
		var readErr entry.StorageReadError
		if !errors.As(err, &readErr) {
			log.Error("Failed to load entries", "error", err)
			os.Exit(1)
		}
		log.Warn("Starting with an empty list", "error", err)
	}

	var notifier service.ScanNotifier = service.NopScanNotifier{}
	if cfg.Kafka.Enabled {
		producer, err := producers.NewScanEventProducer(appCtx, log, &cfg.Kafka)
		if err != nil {
			log.Error("Failed to initialize scan event producer", "error", err)
			os.Exit(1)
		}
		poolNotifier, err := service.NewPoolScanNotifier(log, producer, cfg.WorkerPool.Size)
		if err != nil {
			log.Error("Failed to initialize scan notifier", "error", err)
			os.Exit(1)
		}
		notifier = poolNotifier
		log.Info("Scan events enabled", "topic", cfg.Kafka.ScanTopic)
	}

	renderer := render.NewRenderer(log, &cfg.Render)
	entryService := service.NewEntryService(log, entryStore, renderer, notifier, cfg.Application.PublicBaseURL)

	server, err := dashboard.NewServer(log, cfg, entryService)
	if err != nil {
		log.Error("Failed to initialize HTTP server", "error", err)
		os.Exit(1)
	}

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

	var shutdownErr error
	if err := server.Stop(shutdownCtx); err != nil {
		log.Error("Error during server shutdown", "error", err)
		shutdownErr = err
	}
	if err := notifier.Close(); err != nil {
		log.Error("Error closing scan notifier", "error", err)
		shutdownErr = err
	}
	closeRepo(shutdownCtx)

	if serverErr != nil || shutdownErr != nil {
		log.Error("Shutdown completed with errors")
		os.Exit(1)
	}
	log.Info("Shutdown completed successfully")
}

// openRepository connects the durable mirror selected by STORAGE_DRIVER and
// returns it with its release function.
func openRepository(ctx context.Context, log *slog.Logger, cfg *config.Config) (entry.Repository, func(context.Context), error) {
	switch cfg.Storage.Driver {
	case config.DriverSQLite:
		db, err := persistence.NewSQLiteDB(log, cfg.Storage.SQLitePath)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func(context.Context) {
			if err := db.Close(); err != nil {
				log.Error("Error closing SQLite database", "error", err)
			}
		}
		return sqlite.NewKVRepository(log, db.DB()), closeFn, nil

	case config.DriverPostgres:
		db, err := persistence.NewPostgresDB(ctx, log, &cfg.Postgres)
		if err != nil {
			return nil, nil, err
		}
		return postgres.NewKVRepository(log, db), func(context.Context) { db.Close() }, nil

	case config.DriverMongo:
		db, err := persistence.NewMongoDB(ctx, log, &cfg.MongoDB)
		if err != nil {
			return nil, nil, err
		}
		closeFn := func(ctx context.Context) {
			if err := db.Close(ctx); err != nil {
				log.Error("Error closing MongoDB connection", "error", err)
			}
		}
		return mongo.NewKVRepository(log, db.Collection(cfg.MongoDB.StoreCollection)), closeFn, nil

	case config.DriverS3:
		client, err := persistence.NewS3Client(ctx, log, &cfg.S3)
		if err != nil {
			return nil, nil, err
		}
		return s3store.NewKVRepository(log, client, cfg.S3.Bucket, cfg.S3.Prefix), func(context.Context) {}, nil

	case config.DriverMemory:
		log.Warn("Using in-memory storage, entries will not survive a restart")
		return memory.NewRepository(), func(context.Context) {}, nil
	}
	return nil, nil, fmt.Errorf("unknown storage driver %q", cfg.Storage.Driver)
}
