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

	httpadapter "github.com/couchcryptid/storm-track-map/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/storm-track-map/internal/adapter/kafka"
	"github.com/couchcryptid/storm-track-map/internal/adapter/stormapi"
	"github.com/couchcryptid/storm-track-map/internal/config"
	"github.com/couchcryptid/storm-track-map/internal/observability"
	"github.com/couchcryptid/storm-track-map/internal/pipeline"
	"github.com/couchcryptid/storm-track-map/internal/render"
	"github.com/couchcryptid/storm-track-map/internal/session"
)

func main() {
	// A missing .env is fine; the environment wins either way.
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg)
	metrics := observability.NewMetrics()

	client := stormapi.NewClient(cfg.StormAPIURL, cfg.StormAPITimeout, metrics, logger)
	logger.Info("storm api configured", "url", cfg.StormAPIURL, "timeout", cfg.StormAPITimeout)

	// Month cache is feature-flagged via STORM_CACHE_SIZE (0 disables).
	var source session.StormSource = client
	if cfg.StormCacheSize > 0 {
		cached, err := stormapi.NewCachedSource(client, cfg.StormCacheSize, metrics)
		if err != nil {
			logger.Error("failed to create month cache", "error", err)
			os.Exit(1)
		}
		source = cached
		logger.Info("month cache enabled", "size", cfg.StormCacheSize)
	} else {
		logger.Info("month cache disabled")
	}

	// Scene publication is feature-flagged via KAFKA_ENABLED / KAFKA_BROKERS.
	var publisher *kafkaadapter.Publisher
	var scenePublisher httpadapter.ScenePublisher
	if cfg.KafkaEnabled {
		publisher = kafkaadapter.NewPublisher(cfg, metrics, logger)
		scenePublisher = publisher
		metrics.PublishEnabled.Set(1)
		logger.Info("scene publication enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaSceneTopic)
	} else {
		logger.Info("scene publication disabled")
	}

	renderer := render.NewRenderer(logger, metrics)
	srv := httpadapter.NewServer(cfg.HTTPAddr, client, source, renderer, scenePublisher, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Start HTTP server.
	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
			stop()
		}
	}()

	// Keep the open month published while publication is on.
	if publisher != nil {
		refresher := pipeline.New(source, renderer, publisher, cfg.RefreshInterval, logger, metrics)
		go func() {
			if err := refresher.Run(ctx); err != nil {
				logger.Error("refresher error", "error", err)
			}
		}()
	}

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if publisher != nil {
		if err := publisher.Close(); err != nil {
			logger.Error("kafka publisher close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}
