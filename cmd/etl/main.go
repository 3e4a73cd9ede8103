package main

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	httpadapter "github.com/couchcryptid/covid-data-etl/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/covid-data-etl/internal/adapter/kafka"
	"github.com/couchcryptid/covid-data-etl/internal/adapter/sqlite"
	"github.com/couchcryptid/covid-data-etl/internal/config"
	"github.com/couchcryptid/covid-data-etl/internal/observability"
	"github.com/couchcryptid/covid-data-etl/internal/pipeline"
)

func main() {
	// A missing .env file is not an error.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var exporters []pipeline.Exporter
	var closers []io.Closer
	if cfg.KafkaExportEnabled {
		w := kafkaadapter.NewWriter(cfg, logger)
		exporters = append(exporters, w)
		closers = append(closers, w)
		logger.Info("kafka export enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaExportTopic)
	}
	if cfg.SQLiteExportPath != "" {
		store, err := sqlite.Open(ctx, cfg.SQLiteExportPath)
		if err != nil {
			logger.Error("failed to open sqlite export", "path", cfg.SQLiteExportPath, "error", err)
			os.Exit(1)
		}
		exporters = append(exporters, store)
		closers = append(closers, store)
		logger.Info("sqlite export enabled", "path", cfg.SQLiteExportPath)
	}

	p, err := pipeline.NewFromConfig(cfg, exporters, logger, metrics)
	if err != nil {
		logger.Error("failed to build pipeline", "error", err)
		os.Exit(1)
	}

	srv := httpadapter.NewServer(httpadapter.Options{
		Addr:         cfg.HTTPAddr,
		DefaultStart: cfg.DefaultStart,
		DefaultEnd:   cfg.DefaultEnd,
	}, p, logger)

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	if err := p.CheckReadiness(ctx); err != nil {
		logger.Warn("data directory not ready", "dir", cfg.DataDir, "error", err)
	}

	// Warm the cache with the default range.
	if cfg.HasDefaultRange() {
		go func() {
			ds, err := p.Load(ctx, cfg.DefaultStart, cfg.DefaultEnd)
			if err != nil {
				logger.Error("warm-up load failed", "error", err)
				return
			}
			logger.Info("warm-up load complete",
				"rows", len(ds.Observations),
				"files_loaded", ds.Report.FilesLoaded,
				"skipped", ds.Report.Skipped(),
			)
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	for _, c := range closers {
		if err := c.Close(); err != nil {
			logger.Error("exporter close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
