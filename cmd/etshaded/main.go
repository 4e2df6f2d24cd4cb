// Command etshaded runs the streaming ETL service: it consumes daily ET
// samples from Kafka, joins them against a shade table, and publishes
// shade-adjusted records to the sink topic.
package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/greenblume/et-shade-etl/internal/adapter/csvfile"
	httpadapter "github.com/greenblume/et-shade-etl/internal/adapter/http"
	kafkaadapter "github.com/greenblume/et-shade-etl/internal/adapter/kafka"
	"github.com/greenblume/et-shade-etl/internal/config"
	"github.com/greenblume/et-shade-etl/internal/domain"
	"github.com/greenblume/et-shade-etl/internal/observability"
	"github.com/greenblume/et-shade-etl/internal/pipeline"
)

func main() {
	// Local development convenience; in deployment the environment is set
	// by the orchestrator and no .env file exists.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	if cfg.ShadeTablePath == "" {
		logger.Error("SHADE_TABLE_PATH is required")
		os.Exit(1)
	}
	table, err := csvfile.ReadShadeTable(cfg.ShadeTablePath)
	if err != nil {
		logger.Error("failed to load shade table", "path", cfg.ShadeTablePath, "error", err)
		os.Exit(1)
	}
	policy, err := domain.ParseMissingPolicy(cfg.ShadeMissingPolicy)
	if err != nil {
		logger.Error("invalid shade missing policy", "error", err)
		os.Exit(1)
	}
	logger.Info("shade table loaded",
		"path", cfg.ShadeTablePath,
		"records", table.Len(),
		"fields", len(table.FieldIDs()),
		"missing_policy", string(policy),
	)

	reader := kafkaadapter.NewReader(cfg, logger)
	writer := kafkaadapter.NewWriter(cfg, logger)
	transformer := pipeline.NewTransformer(table, policy, logger)

	p := pipeline.New(reader, transformer, writer, logger, metrics, cfg.BatchSize)

	srv := httpadapter.NewServer(cfg.HTTPAddr, p, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start ETL pipeline.
	go func() {
		if err := p.Run(ctx); err != nil {
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
	if err := reader.Close(); err != nil {
		logger.Error("kafka reader close error", "error", err)
	}
	if err := writer.Close(); err != nil {
		logger.Error("kafka writer close error", "error", err)
	}

	logger.Info("shutdown complete")
}
