package middleware

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/example/mixbox-shop/internal/auth"
	"github.com/example/mixbox-shop/internal/domain/session"
)

const (
	CookieName = "session_id"

	sessionKey      = "session"
	newlyCreatedKey = "session_created"
)

// CookieConfig controls the session cookie attributes.
type CookieConfig struct {
	Secure bool
	Domain string
}

// SessionTokens is the subset of auth.SessionTokens the middleware needs.
type SessionTokens interface {
	Issue(sessionID string) (string, time.Time, error)
	Verify(token string) (string, error)
}

// SessionID returns the session id carried by the request cookie, or "".
func SessionID(c *gin.Context, tokens SessionTokens) string {
	raw, err := c.Cookie(CookieName)
	if err != nil || raw == "" {
		return ""
	}
	id, err := tokens.Verify(raw)
	if err != nil {
		return ""
	}
	return id
}

// Session resolves the visitor session from the cookie, creating one when the
// cookie is missing, invalid, expired or names an unknown session. The cookie
// is re-issued on every request so its lifetime slides with activity.
func Session(tokens SessionTokens, sessions *session.Service, cookie CookieConfig, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, created, err := sessions.Resume(c.Request.Context(), SessionID(c, tokens))
		if err != nil {
			logger.Error("resolve session failed", zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
			return
		}
		if err := SetSessionCookie(c, tokens, sess.ID, cookie); err != nil {
			logger.Error("issue session cookie failed", zap.String("session_id", sess.ID), zap.Error(err))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"success": false, "error": "internal server error"})
			return
		}

		c.Set(sessionKey, sess)
		c.Set(newlyCreatedKey, created)
		c.Next()
	}
}

// SetSessionCookie writes a signed cookie for sessionID.
func SetSessionCookie(c *gin.Context, tokens SessionTokens, sessionID string, cookie CookieConfig) error {
	token, expiresAt, err := tokens.Issue(sessionID)
	if err != nil {
		return err
	}
	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, token, maxAge, "/", cookie.Domain, cookie.Secure, true)
	return nil
}

// ClearSessionCookie expires the session cookie.
func ClearSessionCookie(c *gin.Context, cookie CookieConfig) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(CookieName, "", -1, "/", cookie.Domain, cookie.Secure, true)
}

// SessionFrom returns the session stored by Session.
func SessionFrom(c *gin.Context) (*session.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*session.Session)
	return sess, ok
}

// NewlyCreated reports whether Session created the session on this request.
func NewlyCreated(c *gin.Context) bool {
	return c.GetBool(newlyCreatedKey)
}

var _ SessionTokens = (*auth.SessionTokens)(nil)
