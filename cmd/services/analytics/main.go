package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/soltixdb/climatix/internal/compression"
	"github.com/soltixdb/climatix/internal/config"
	"github.com/soltixdb/climatix/internal/handlers"
	"github.com/soltixdb/climatix/internal/ingest"
	"github.com/soltixdb/climatix/internal/logging"
	"github.com/soltixdb/climatix/internal/metadata"
	"github.com/soltixdb/climatix/internal/queue"
	"github.com/soltixdb/climatix/internal/router"
	"github.com/soltixdb/climatix/internal/services"
	"github.com/soltixdb/climatix/internal/storage"
)

var (
	Version   = "dev"     // Injected via ldflags during build
	GitCommit = "unknown" // Injected via ldflags during build
	BuildTime = "unknown" // Injected via ldflags during build
)

func main() {
	configPath := flag.String("config", "", "Path to configuration file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}

	logger, err := logging.NewFromConfig(cfg.Logging)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	logging.SetGlobal(logger)
	logger.Info("Climatix starting...",
		"version", Version, "commit", GitCommit, "build time", BuildTime)

	if err := cfg.EnsureDirectories(); err != nil {
		logger.Fatal("Failed to create data directories", "error", err)
	}

	location := cfg.Storage.Location()
	logger.Info("Timezone configured", "timezone", location.String())

	// Device registry
	logger.Info("Opening device registry", "backend", cfg.Registry.Backend)
	registry, err := metadata.NewRegistry(cfg.Registry, cfg.Etcd)
	if err != nil {
		logger.Fatal("Failed to open device registry", "error", err)
	}
	defer func() { _ = registry.Close() }()

	// Reading store
	logger.Info("Opening reading store",
		"backend", cfg.Storage.Backend,
		"data_dir", cfg.Storage.DataDir,
		"wal", cfg.Storage.MemoryStore.WAL.Enabled)
	store, err := storage.NewStore(cfg.Storage)
	if err != nil {
		logger.Fatal("Failed to open reading store", "error", err)
	}
	defer func() { _ = store.Close() }()

	sink := ingest.NewSink(store, registry)
	writerOpts := ingest.WriterOptions{
		Async:        cfg.Ingest.Async,
		Subject:      cfg.Ingest.Subject,
		AutoRegister: cfg.Registry.AutoRegister,
		ChunkSize:    cfg.Ingest.ChunkSize,
	}

	var (
		queueClient queue.Queue
		consumer    *ingest.Consumer
	)
	if cfg.Ingest.Async {
		algo, err := compression.ParseAlgorithm(cfg.Ingest.Compression)
		if err != nil {
			logger.Fatal("Invalid ingest compression", "error", err)
		}
		compressor, err := compression.GetCompressor(algo)
		if err != nil {
			logger.Fatal("Failed to create compressor", "error", err)
		}
		writerOpts.Compressor = compressor

		logger.Info("Connecting to Queue", "type", cfg.Queue.Type, "url", cfg.Queue.URL)
		queueClient, err = queue.NewQueue(cfg.Queue)
		if err != nil {
			logger.Fatal("Failed to connect to Queue", "error", err)
		}
		defer func() { _ = queueClient.Close() }()

		consumer = ingest.NewConsumer(queueClient, cfg.Ingest.Subject, sink)
		if err := consumer.Start(); err != nil {
			logger.Fatal("Failed to start ingest consumer", "error", err)
		}
		logger.Info("Async ingest enabled", "subject", cfg.Ingest.Subject, "compression", algo.String())
	}

	writer := ingest.NewWriter(sink, registry, queueClient, writerOpts)

	h := handlers.New(logger, Version, handlers.Services{
		Analytics: services.NewAnalyticsService(logger, store, cfg.Analytics, location),
		Reports:   services.NewReportService(logger, store, cfg.Analytics, location),
		Data:      services.NewDataService(logger, store, location),
		Devices:   services.NewDeviceService(logger, registry),
		Ingest:    services.NewIngestService(logger, writer, cfg.Ingest.MaxBatchSize),
		Health:    services.NewHealthService(logger, store, registry, queuePinger(queueClient)),
	})
	app := router.New(logger, h, cfg.Server)

	go func() {
		addr := cfg.GetServerAddress()
		logger.Info("Server listening", "address", addr)
		if err := app.Listen(addr); err != nil {
			logger.Fatal("Failed to start server", "error", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	logger.Info("Shutting down server...")

	// Graceful shutdown with 10 second timeout
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error("Server forced to shutdown", "error", err)
	}

	// stop consuming before the store closes
	if consumer != nil {
		if err := consumer.Stop(); err != nil {
			logger.Warn("Failed to stop ingest consumer", "error", err)
		}
	}

	logger.Info("Server exited")
}

// queuePinger keeps a nil queue a nil Pinger so /health reports it disabled
func queuePinger(q queue.Queue) services.Pinger {
	if q == nil {
		return nil
	}
	return q
}
