package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/mixbox-shop/internal/api"
	"github.com/example/mixbox-shop/internal/api/middleware"
	"github.com/example/mixbox-shop/internal/auth"
	"github.com/example/mixbox-shop/internal/command"
	"github.com/example/mixbox-shop/internal/config"
	"github.com/example/mixbox-shop/internal/domain/basket"
	"github.com/example/mixbox-shop/internal/domain/catalog"
	"github.com/example/mixbox-shop/internal/domain/delivery"
	"github.com/example/mixbox-shop/internal/domain/selection"
	"github.com/example/mixbox-shop/internal/domain/session"
	"github.com/example/mixbox-shop/internal/events"
	"github.com/example/mixbox-shop/internal/infrastructure/cache"
	"github.com/example/mixbox-shop/internal/infrastructure/kafka"
	"github.com/example/mixbox-shop/internal/infrastructure/store"
	"github.com/example/mixbox-shop/internal/logging"
	"github.com/example/mixbox-shop/internal/query"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("[API] Failed to load config: %v", err)
	}
	logger, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		log.Fatalf("[API] Failed to build logger: %v", err)
	}
	defer logger.Sync()
	logger = logger.With(zap.String("service", "api"))

	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// Stores
	startCtx, cancel := store.DefaultTimer()
	backend, err := store.OpenBackend(startCtx, cfg.Backend())
	cancel()
	if err != nil {
		logger.Fatal("open store failed", zap.String("driver", cfg.StoreDriver), zap.Error(err))
	}
	defer closeBackend(backend, logger)
	logger.Info("connected to store", zap.String("driver", cfg.StoreDriver))

	if cfg.CatalogSeedFile != "" {
		if err := seedCatalog(cfg.CatalogSeedFile, backend.Catalog); err != nil {
			logger.Fatal("seed catalog failed", zap.String("file", cfg.CatalogSeedFile), zap.Error(err))
		}
		logger.Info("catalog seeded", zap.String("file", cfg.CatalogSeedFile))
	}

	// Catalog cache
	var repo catalog.Repository = backend.Catalog
	if cfg.RedisAddr != "" {
		client := cache.NewClient(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB)
		defer client.Close()
		catalogCache := cache.NewCatalogCache(backend.Catalog, client, cfg.CatalogCacheTTL, logger)
		if cfg.CatalogSeedFile != "" {
			invalidateCtx, cancel := store.DefaultTimer()
			if err := catalogCache.Invalidate(invalidateCtx); err != nil {
				logger.Warn("invalidate catalog cache failed", zap.Error(err))
			}
			cancel()
		}
		repo = catalogCache
		logger.Info("catalog cache enabled", zap.String("redis", cfg.RedisAddr))
	}

	// Events
	var publisher events.Publisher
	if brokers := cfg.Brokers(); len(brokers) > 0 {
		producer := kafka.NewProducer(brokers, cfg.KafkaTopic)
		defer producer.Close()
		publisher = producer
		logger.Info("publishing basket events", zap.Strings("brokers", brokers), zap.String("topic", cfg.KafkaTopic))
	} else {
		logger.Info("KAFKA_BROKERS not set, basket events are not published")
	}

	// Domain services
	sessions := session.NewService(backend.Sessions, cfg.SelectionTTL)
	mutator := basket.NewMutator(repo, delivery.NewCalculator(cfg.Delivery), cfg.Currency, cfg.DefaultCountry)
	generator := selection.NewGenerator(nil)
	tokens, err := auth.NewSessionTokens(cfg.SessionSecret, cfg.SessionRetention)
	if err != nil {
		logger.Fatal("session tokens", zap.Error(err))
	}

	// Handlers
	cmdHandler := command.NewHandler(sessions, repo, mutator, generator, events.NewRecorder(publisher), cfg.Currency, logger)
	queryHandler := query.NewHandler(repo, backend.Summaries, cfg.Currency)

	cookie := middleware.CookieConfig{Secure: cfg.SessionCookieSecure}
	handlers := api.NewHandlers(cmdHandler, queryHandler, sessions, tokens, cookie, logger)
	router, err := api.NewRouter(api.RouterConfig{
		Handlers:       handlers,
		Session:        middleware.Session(tokens, sessions, cookie, logger),
		RateLimiter:    middleware.NewRateLimiter(cfg.RateLimitPerMin),
		AllowedOrigins: cfg.AllowedOrigins(),
		TrustedProxies: cfg.Proxies(),
		Logger:         logger,
	})
	if err != nil {
		logger.Fatal("build router failed", zap.Error(err))
	}

	server := &http.Server{
		Addr:              ":" + cfg.AppPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logger.Info("server started", zap.String("addr", server.Addr))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal("server error", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown failed", zap.Error(err))
	}
}

func seedCatalog(path string, w store.CatalogWriter) error {
	seed, err := store.LoadCatalogSeed(path)
	if err != nil {
		return err
	}
	ctx, cancel := store.DefaultTimer()
	defer cancel()
	return seed.Apply(ctx, w)
}

func closeBackend(b *store.Backend, logger *zap.Logger) {
	ctx, cancel := store.DefaultTimer()
	defer cancel()
	if err := b.Close(ctx); err != nil {
		logger.Warn("close store failed", zap.Error(err))
	}
}
