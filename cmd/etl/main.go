package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/goes-fire-etl/internal/adapter/goesaws"
	"github.com/couchcryptid/goes-fire-etl/internal/adapter/httpadapter"
	kafkaadapter "github.com/couchcryptid/goes-fire-etl/internal/adapter/kafka"
	"github.com/couchcryptid/goes-fire-etl/internal/adapter/netcdf"
	"github.com/couchcryptid/goes-fire-etl/internal/config"
	"github.com/couchcryptid/goes-fire-etl/internal/observability"
	"github.com/couchcryptid/goes-fire-etl/internal/pipeline"
	"github.com/couchcryptid/goes-fire-etl/internal/store"
)

func main() {
	configPath := flag.String("config", "", "path to YAML config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()
	clock := clockwork.NewRealClock()
	loc := cfg.Location()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := store.Open(ctx, cfg.Postgres.DSN(), loc, clock, logger)
	if err != nil {
		logger.Error("failed to connect to postgres", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	if err := db.EnsureSchema(ctx); err != nil {
		logger.Error("failed to ensure schema", "error", err)
		os.Exit(1)
	}

	reader := netcdf.NewReader(logger)

	acquirer, err := goesaws.New(goesaws.Options{
		Endpoint: cfg.Archive.Endpoint,
		Bucket:   cfg.Archive.Bucket,
		Product:  cfg.Archive.Product,
		Secure:   cfg.Archive.Secure,
	}, cfg.StorageRoot, reader, logger)
	if err != nil {
		logger.Error("failed to build acquirer", "error", err)
		os.Exit(1)
	}

	// Publishing is feature-flagged via the kafka config block.
	var publisher pipeline.Publisher
	var writer *kafkaadapter.Writer
	if cfg.PublishingEnabled() {
		writer = kafkaadapter.NewWriter(cfg.Kafka.Brokers, cfg.Kafka.Topic, logger)
		publisher = writer
		logger.Info("kafka publishing enabled", "topic", cfg.Kafka.Topic)
	} else {
		logger.Info("kafka publishing disabled")
	}

	processor := pipeline.NewProcessor(reader, cfg.Region, loc, clock, logger, metrics)
	dispatcher := pipeline.NewDispatcher(processor, cfg.Workers, logger)

	pl := pipeline.New(pipeline.Params{
		StorageRoot: cfg.StorageRoot,
		Epoch:       cfg.Epoch,
		RunInterval: cfg.RunInterval,
		Acquirer:    acquirer,
		Dispatcher:  dispatcher,
		Ingestor:    db,
		Publisher:   publisher,
		Clock:       clock,
		Logger:      logger,
		Metrics:     metrics,
	})

	srv := httpadapter.NewServer(cfg.HTTPAddr, pl, logger)

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := pl.Run(ctx); err != nil {
			logger.Error("pipeline error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
