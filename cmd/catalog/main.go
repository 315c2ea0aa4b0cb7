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

	httpadapter "github.com/couchcryptid/cyclone-catalog/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/cyclone-catalog/internal/adapter/kafka"
	redisadapter "github.com/couchcryptid/cyclone-catalog/internal/adapter/redis"
	"github.com/couchcryptid/cyclone-catalog/internal/config"
	"github.com/couchcryptid/cyclone-catalog/internal/observability"
	"github.com/couchcryptid/cyclone-catalog/internal/pipeline"
	"github.com/couchcryptid/cyclone-catalog/internal/source"
)

func main() {
	// A missing .env is normal outside local development.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	manifest, err := config.LoadManifest(cfg.ManifestPath)
	if err != nil {
		logger.Error("failed to load manifest", "error", err, "path", cfg.ManifestPath)
		os.Exit(1)
	}

	src, err := source.New(cfg, manifest, logger, metrics)
	if err != nil {
		logger.Error("failed to configure source", "error", err)
		os.Exit(1)
	}

	var opts []pipeline.Option

	// Last-good batch persistence (enabled via REDIS_ADDR).
	if cfg.RedisEnabled() {
		client := redisadapter.NewClient(cfg.RedisAddr, cfg.RedisPassword)
		defer client.Close()
		opts = append(opts, pipeline.WithStore(redisadapter.NewBatchStore(client, cfg.RedisKey, logger)))
		logger.Info("batch persistence enabled", "addr", cfg.RedisAddr, "key", cfg.RedisKey)
	}

	// Snapshot events (enabled via KAFKA_BROKERS).
	var writer *kafkaadapter.Writer
	if cfg.KafkaEnabled() {
		writer = kafkaadapter.NewWriter(cfg, logger)
		opts = append(opts, pipeline.WithPublisher(writer))
		logger.Info("snapshot publishing enabled", "topic", cfg.KafkaSnapshotTopic)
	}

	refresher := pipeline.New(src, pipeline.NewTransformer(logger), cfg.RefreshInterval, logger, metrics, opts...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, refresher, refresher, cfg.RasterAPIURL, metrics, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	// Start catalog refresher.
	go func() {
		if err := refresher.Run(ctx); err != nil {
			logger.Error("refresher error", "error", err)
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
