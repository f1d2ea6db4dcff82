package main

import (
	"context"
	"flag"
	"log"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/example/mixbox-shop/internal/config"
	"github.com/example/mixbox-shop/internal/domain/session"
	"github.com/example/mixbox-shop/internal/infrastructure/store"
	"github.com/example/mixbox-shop/internal/logging"
	"github.com/example/mixbox-shop/internal/sweeper"
)

func main() {
	once := flag.Bool("once", false, "run a single sweep and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[Sweeper] Failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("[Sweeper] Failed to build logger: %v", err)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("service", "sweeper"))

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

	sessions := session.NewService(backend.Sessions, cfg.SelectionTTL)
	sw := sweeper.New(sessions, backend.Summaries, cfg.SessionRetention, logger)

	if *once {
		if _, err := sw.RunOnce(context.Background()); err != nil {
			logger.Error("sweep failed", zap.Error(err))
		}
		return
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := sw.Start(cfg.SessionSweepSchedule); err != nil {
		logger.Fatal("schedule sweep failed", zap.Error(err))
	}
	logger.Info("sweeper started",
		zap.String("schedule", cfg.SessionSweepSchedule),
		zap.Duration("retention", cfg.SessionRetention))

	<-ctx.Done()
	logger.Info("shutting down")
	sw.Stop()
}
