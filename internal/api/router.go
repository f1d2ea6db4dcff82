package api

import (
	"fmt"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/mixbox-shop/internal/api/middleware"
)

type RouterConfig struct {
	Handlers       *Handlers
	Session        gin.HandlerFunc
	RateLimiter    *middleware.RateLimiter
	AllowedOrigins []string
	// TrustedProxies lists the CIDRs whose forwarding headers are believed.
	// Empty means the peer address is always the client.
	TrustedProxies []string
	Logger         *zap.Logger
}

func NewRouter(cfg RouterConfig) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}
	r.Use(middleware.Recovery(cfg.Logger))
	r.Use(middleware.RequestLogger(cfg.Logger))
	if len(cfg.AllowedOrigins) > 0 {
		r.Use(cors.New(cors.Config{
			AllowOrigins:     cfg.AllowedOrigins,
			AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
			AllowHeaders:     []string{"Origin", "Content-Type", "Accept"},
			AllowCredentials: true,
			MaxAge:           12 * time.Hour,
		}))
	}
	if cfg.RateLimiter != nil {
		r.Use(cfg.RateLimiter.Middleware(cfg.Logger))
	}

	h := cfg.Handlers
	api := r.Group("/api")

	// Public
	api.GET("/health", h.Health)
	api.POST("/price", h.CalculatePrice)
	api.GET("/packages", h.ListPackages)
	api.GET("/packages/:slug", h.GetPackage)
	api.GET("/drinks", h.ListDrinks)
	api.DELETE("/session", h.DeleteSession)

	// Session-bound
	visitor := api.Group("", cfg.Session)
	visitor.GET("/session", h.GetSession)
	visitor.PUT("/session/consent", h.SetConsent)
	visitor.POST("/selections/random", h.GenerateRandomSelection)
	visitor.POST("/selections", h.CreateSelection)
	visitor.GET("/basket", h.GetBasket)
	visitor.POST("/basket", h.UpdateBasket)
	visitor.GET("/basket/summary", h.GetBasketSummary)

	return r, nil
}
