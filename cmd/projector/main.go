package main

import (
	"context"
	"errors"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/example/mixbox-shop/internal/config"
	"github.com/example/mixbox-shop/internal/infrastructure/kafka"
	"github.com/example/mixbox-shop/internal/infrastructure/store"
	"github.com/example/mixbox-shop/internal/logging"
	"github.com/example/mixbox-shop/internal/projection"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Projector] Failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("[Projector] Failed to build logger: %v", err)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("service", "projector"))

	brokers := cfg.Brokers()
	if len(brokers) == 0 {
		logger.Fatal("KAFKA_BROKERS is required")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	startCtx, cancel := store.DefaultTimer()
	backend, err := store.OpenBackend(startCtx, cfg.Backend())
	cancel()
	if err != nil {
		logger.Fatal("open store failed", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer func() {
		closeCtx, cancel := store.DefaultTimer()
		defer cancel()
		if err := backend.Close(closeCtx); err != nil {
			logger.Warn("close store failed", zap.Error(err))
		}
	}()

	projector := projection.NewProjector(backend.Summaries, logger)

	consumer := kafka.NewConsumer(brokers, cfg.KafkaTopic, cfg.KafkaConsumerGroup, logger)
	defer consumer.Close()

	logger.Info("consuming basket events",
		zap.Strings("brokers", brokers),
		zap.String("topic", cfg.KafkaTopic),
		zap.String("group", cfg.KafkaConsumerGroup))

	if err := consumer.Consume(ctx, projector.HandleEvent); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("consumer stopped", zap.Error(err))
	}
	logger.Info("shutting down")
}
