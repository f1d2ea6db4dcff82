package api

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/mixbox-shop/internal/api/middleware"
	"github.com/example/mixbox-shop/internal/domain/basket"
	"github.com/example/mixbox-shop/internal/domain/catalog"
	"github.com/example/mixbox-shop/internal/domain/delivery"
	"github.com/example/mixbox-shop/internal/domain/pricing"
	"github.com/example/mixbox-shop/internal/domain/selection"
	"github.com/example/mixbox-shop/internal/domain/session"
)

var (
	errMalformedBody   = errors.New("malformed request body")
	errSessionMismatch = errors.New("sessionId does not match the session cookie")
)

var badRequest = []error{
	errMalformedBody,
	basket.ErrInvalidItemIndex,
	basket.ErrInvalidQuantity,
	basket.ErrMissingField,
	basket.ErrUnknownAction,
	pricing.ErrQuantityMismatch,
	pricing.ErrInvalidSize,
	pricing.ErrInvalidQuantity,
	selection.ErrInvalidPreference,
	selection.ErrInvalidSize,
	selection.ErrNoMatchingDrinks,
	delivery.ErrUnknownDeliveryType,
}

var notFound = []error{
	catalog.ErrPackageNotFound,
	catalog.ErrDrinkNotFound,
	selection.ErrInvalidSelection,
	session.ErrSessionNotFound,
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var fe basket.FieldErrors
	if errors.As(err, &fe) {
		return http.StatusBadRequest
	}
	for _, target := range badRequest {
		if errors.Is(err, target) {
			return http.StatusBadRequest
		}
	}
	for _, target := range notFound {
		if errors.Is(err, target) {
			return http.StatusNotFound
		}
	}
	switch {
	case errors.Is(err, session.ErrVersionConflict):
		return http.StatusConflict
	case errors.Is(err, errSessionMismatch):
		return http.StatusForbidden
	}
	return http.StatusInternalServerError
}

// respondError writes `{success:false, error, errors?}`. Server errors are
// logged and their message is not exposed.
func (h *Handlers) respondError(c *gin.Context, err error) {
	status := statusFor(err)
	body := gin.H{"success": false, "error": err.Error()}

	var fe basket.FieldErrors
	if errors.As(err, &fe) {
		body["error"] = "invalid customer details"
		body["errors"] = fe
	}

	if status == http.StatusInternalServerError {
		fields := []zap.Field{zap.String("path", c.Request.URL.Path), zap.Error(err)}
		if sess, ok := middleware.SessionFrom(c); ok {
			fields = append(fields, zap.String("session_id", sess.ID))
		}
		h.logger.Error("request failed", fields...)
		body["error"] = "internal server error"
	}

	c.AbortWithStatusJSON(status, body)
}
