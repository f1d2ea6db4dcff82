package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
	ErrWeakSecret   = errors.New("session secret must be at least 32 characters")
)

// MinSecretLength is the shortest accepted signing secret.
const MinSecretLength = 32

const issuer = "mixbox-shop"

// SessionTokens signs and verifies the value of the session cookie. The
// token subject is the session id.
type SessionTokens struct {
	secretKey []byte
	expiry    time.Duration
	now       func() time.Time
}

// NewSessionTokens creates a token service. expiry matches the session retention.
func NewSessionTokens(secretKey string, expiry time.Duration) (*SessionTokens, error) {
	if len(secretKey) < MinSecretLength {
		return nil, ErrWeakSecret
	}
	return &SessionTokens{secretKey: []byte(secretKey), expiry: expiry, now: time.Now}, nil
}

// Issue returns a signed token for sessionID and its expiry.
func (s *SessionTokens) Issue(sessionID string) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.expiry)

	claims := jwt.RegisteredClaims{
		Issuer:    issuer,
		Subject:   sessionID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	tokenString, err := token.SignedString(s.secretKey)
	if err != nil {
		return "", time.Time{}, err
	}

	return tokenString, expiresAt, nil
}

// Verify validates tokenString and returns the session id.
func (s *SessionTokens) Verify(tokenString string) (string, error) {
	token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secretKey, nil
	}, jwt.WithIssuer(issuer), jwt.WithTimeFunc(s.now))

	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", ErrExpiredToken
		}
		return "", ErrInvalidToken
	}

	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || !token.Valid || claims.Subject == "" {
		return "", ErrInvalidToken
	}

	return claims.Subject, nil
}

// Expiry returns the token lifetime.
func (s *SessionTokens) Expiry() time.Duration {
	return s.expiry
}
