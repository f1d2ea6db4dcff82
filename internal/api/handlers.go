package api

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/mixbox-shop/internal/api/middleware"
	"github.com/example/mixbox-shop/internal/command"
	"github.com/example/mixbox-shop/internal/domain/basket"
	"github.com/example/mixbox-shop/internal/domain/session"
	"github.com/example/mixbox-shop/internal/query"
)

type Handlers struct {
	cmdHandler   *command.Handler
	queryHandler *query.Handler
	sessions     *session.Service
	tokens       middleware.SessionTokens
	cookie       middleware.CookieConfig
	logger       *zap.Logger
}

func NewHandlers(
	cmdHandler *command.Handler,
	queryHandler *query.Handler,
	sessions *session.Service,
	tokens middleware.SessionTokens,
	cookie middleware.CookieConfig,
	logger *zap.Logger,
) *Handlers {
	return &Handlers{
		cmdHandler:   cmdHandler,
		queryHandler: queryHandler,
		sessions:     sessions,
		tokens:       tokens,
		cookie:       cookie,
		logger:       logger.With(zap.String("component", "api")),
	}
}

// Session Handlers

func (h *Handlers) GetSession(c *gin.Context) {
	sess := mustSession(c)
	c.JSON(http.StatusOK, gin.H{"session": sess, "newlyCreated": middleware.NewlyCreated(c)})
}

func (h *Handlers) DeleteSession(c *gin.Context) {
	if id := middleware.SessionID(c, h.tokens); id != "" {
		if err := h.cmdHandler.DeleteSession(c.Request.Context(), id); err != nil {
			h.respondError(c, err)
			return
		}
	}
	middleware.ClearSessionCookie(c, h.cookie)
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *Handlers) SetConsent(c *gin.Context) {
	var req consentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, malformed(err))
		return
	}
	if req.Consent == nil {
		h.respondError(c, fmt.Errorf("%w: consent", basket.ErrMissingField))
		return
	}

	sess := mustSession(c)
	if err := h.cmdHandler.SetConsent(c.Request.Context(), sess, command.SetConsent{Consent: *req.Consent}); err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "cookieConsent": sess.CookieConsent})
}

// Selection Handlers

func (h *Handlers) GenerateRandomSelection(c *gin.Context) {
	var req randomSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, malformed(err))
		return
	}
	if req.Slug == "" {
		h.respondError(c, fmt.Errorf("%w: slug", basket.ErrMissingField))
		return
	}

	sess := mustSession(c)
	if req.SessionID != "" && req.SessionID != sess.ID {
		h.respondError(c, errSessionMismatch)
		return
	}

	products, id, err := h.cmdHandler.GenerateSelection(c.Request.Context(), sess, command.GenerateSelection{
		PackageSlug:       req.Slug,
		Size:              int(req.SelectedSize),
		SugarPreference:   req.SugarPreference,
		IsCustomSelection: req.IsCustomSelection,
		SelectedProducts:  req.SelectedProducts,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "selectedProducts": products, "selectionId": id})
}

func (h *Handlers) CreateSelection(c *gin.Context) {
	var req createSelectionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, malformed(err))
		return
	}
	switch {
	case req.PackageSlug == "":
		h.respondError(c, fmt.Errorf("%w: packageSlug", basket.ErrMissingField))
		return
	case len(req.SelectedProducts) == 0:
		h.respondError(c, fmt.Errorf("%w: selectedProducts", basket.ErrMissingField))
		return
	}

	sess := mustSession(c)
	id, quote, err := h.cmdHandler.CreateSelection(c.Request.Context(), sess, command.CreateSelection{
		PackageSlug:      req.PackageSlug,
		Size:             int(req.SelectedSize),
		SelectedProducts: req.SelectedProducts,
		IsMysteryBox:     req.IsMysteryBox,
		SugarPreference:  req.SugarPreference,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"success":                true,
		"selectionId":            id,
		"price":                  quote.PricePerPackage,
		"recyclingFeePerPackage": quote.RecyclingFeePerPackage,
	})
}

// Basket Handlers

func (h *Handlers) UpdateBasket(c *gin.Context) {
	body, err := c.GetRawData()
	if err != nil {
		h.respondError(c, malformed(err))
		return
	}
	action, err := basket.DecodeAction(body)
	if err != nil {
		h.respondError(c, malformed(err))
		return
	}

	sess := mustSession(c)
	if err := h.cmdHandler.UpdateBasket(c.Request.Context(), sess, command.UpdateBasket{Action: action}); err != nil {
		h.respondError(c, err)
		return
	}

	b := sess.Basket
	c.JSON(http.StatusOK, gin.H{
		"success":         true,
		"items":           b.Items,
		"deliveryDetails": b.DeliveryDetails,
		"customerDetails": b.CustomerDetails,
	})
}

func (h *Handlers) GetBasket(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"basketDetails": h.queryHandler.GetBasket(mustSession(c))})
}

func (h *Handlers) GetBasketSummary(c *gin.Context) {
	sess := mustSession(c)
	summary, ok, err := h.queryHandler.GetSummary(c.Request.Context(), sess.ID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	if !ok {
		c.JSON(http.StatusNotFound, gin.H{"success": false, "error": "basket summary not available yet"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// Pricing Handlers

func (h *Handlers) CalculatePrice(c *gin.Context) {
	var req priceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		h.respondError(c, malformed(err))
		return
	}
	if req.Slug == "" {
		h.respondError(c, fmt.Errorf("%w: slug", basket.ErrMissingField))
		return
	}

	quote, err := h.queryHandler.Price(c.Request.Context(), query.PriceQuery{
		PackageSlug:      req.Slug,
		Size:             int(req.SelectedSize),
		SelectedProducts: req.SelectedProducts,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"price":                  quote.PricePerPackage,
		"recyclingFeePerPackage": quote.RecyclingFeePerPackage,
		"originalPrice":          quote.OriginalTotalPrice,
	})
}

// Catalog Handlers

func (h *Handlers) ListPackages(c *gin.Context) {
	packages, err := h.queryHandler.ListPackages(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"packages": packages})
}

func (h *Handlers) GetPackage(c *gin.Context) {
	pkg, err := h.queryHandler.GetPackage(c.Request.Context(), c.Param("slug"))
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"package": pkg})
}

func (h *Handlers) ListDrinks(c *gin.Context) {
	drinks, err := h.queryHandler.ListDrinks(c.Request.Context())
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"drinks": drinks})
}

// Health

func (h *Handlers) Health(c *gin.Context) {
	if err := h.sessions.Ping(c.Request.Context()); err != nil {
		h.logger.Warn("health check failed", zap.Error(err))
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// mustSession returns the session resolved by middleware.Session. Routes
// using it are always mounted behind that middleware.
func mustSession(c *gin.Context) *session.Session {
	sess, ok := middleware.SessionFrom(c)
	if !ok {
		panic("api: route mounted without session middleware")
	}
	return sess
}

func malformed(err error) error {
	return fmt.Errorf("%w: %v", errMalformedBody, err)
}
