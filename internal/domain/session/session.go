// Package session models the per-visitor record that owns the basket and
// pending selections.
package session

import (
	"context"
	"errors"
	"maps"
	"time"

	"github.com/google/uuid"

	"github.com/example/mixbox-shop/internal/domain/basket"
	"github.com/example/mixbox-shop/internal/domain/selection"
)

var (
	ErrSessionNotFound = errors.New("session not found")
	ErrVersionConflict = errors.New("session was modified concurrently")
)

// Session is the server-side state of one visitor.
type Session struct {
	ID            string                          `json:"id" bson:"_id"`
	CookieConsent bool                            `json:"cookieConsent" bson:"cookieConsent"`
	Basket        basket.Basket                   `json:"basket" bson:"basket"`
	Selections    map[string]*selection.Temporary `json:"selections" bson:"selections"`
	Version       int64                           `json:"version" bson:"version"`
	CreatedAt     time.Time                       `json:"createdAt" bson:"createdAt"`
	UpdatedAt     time.Time                       `json:"updatedAt" bson:"updatedAt"`
}

// New returns an empty session with a fresh id.
func New(now time.Time) *Session {
	return &Session{
		ID:         uuid.NewString(),
		Basket:     basket.Basket{Items: []basket.Item{}},
		Selections: map[string]*selection.Temporary{},
		CreatedAt:  now,
		UpdatedAt:  now,
	}
}

// Store persists sessions. Save succeeds only when the stored version equals
// s.Version and increments it; otherwise it returns ErrVersionConflict.
type Store interface {
	Get(ctx context.Context, id string) (*Session, error)
	Create(ctx context.Context, s *Session) error
	Save(ctx context.Context, s *Session) error
	Delete(ctx context.Context, id string) error
	// DeleteOlderThan removes sessions last updated before cutoff and returns their ids.
	DeleteOlderThan(ctx context.Context, cutoff time.Time) ([]string, error)
	Ping(ctx context.Context) error
}

// AddSelection stores sel under a new id and returns it. Identical payloads
// still get distinct ids.
func (s *Session) AddSelection(sel selection.Temporary, now time.Time) string {
	if s.Selections == nil {
		s.Selections = map[string]*selection.Temporary{}
	}
	sel.ID = uuid.NewString()
	sel.CreatedAt = now
	sel.SelectedProducts = maps.Clone(sel.SelectedProducts)
	s.Selections[sel.ID] = &sel
	return sel.ID
}

// SelectionSource returns a lookup that treats entries older than ttl as missing.
func (s *Session) SelectionSource(now time.Time, ttl time.Duration) basket.SelectionSource {
	return selectionView{sels: s.Selections, now: now, ttl: ttl}
}

type selectionView struct {
	sels map[string]*selection.Temporary
	now  time.Time
	ttl  time.Duration
}

func (v selectionView) Selection(id string) (*selection.Temporary, error) {
	sel, ok := v.sels[id]
	if !ok || sel.Expired(v.now, v.ttl) {
		return nil, selection.ErrInvalidSelection
	}
	return sel, nil
}

// Commit installs a mutation outcome. A consumed selection is removed so the
// same id cannot be added twice.
func (s *Session) Commit(out *basket.Outcome) {
	s.Basket = out.Basket
	if out.ConsumedSelectionID != "" {
		delete(s.Selections, out.ConsumedSelectionID)
	}
}

// PruneSelections drops selections older than ttl.
func (s *Session) PruneSelections(now time.Time, ttl time.Duration) int {
	n := 0
	for id, sel := range s.Selections {
		if sel.Expired(now, ttl) {
			delete(s.Selections, id)
			n++
		}
	}
	return n
}
