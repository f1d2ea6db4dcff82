package session

import (
	"context"
	"errors"
	"time"
)

// Service loads and saves sessions.
type Service struct {
	store        Store
	selectionTTL time.Duration
	now          func() time.Time
}

func NewService(store Store, selectionTTL time.Duration) *Service {
	return &Service{store: store, selectionTTL: selectionTTL, now: time.Now}
}

// SetClock overrides the time source.
func (s *Service) SetClock(now func() time.Time) { s.now = now }

func (s *Service) Now() time.Time { return s.now().UTC() }

func (s *Service) SelectionTTL() time.Duration { return s.selectionTTL }

// Get returns the session for id.
func (s *Service) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, ErrSessionNotFound
	}
	return s.store.Get(ctx, id)
}

// Resume returns the session for id, or creates a new one when id is empty or unknown.
func (s *Service) Resume(ctx context.Context, id string) (*Session, bool, error) {
	sess, err := s.Get(ctx, id)
	if err == nil {
		return sess, false, nil
	}
	if !errors.Is(err, ErrSessionNotFound) {
		return nil, false, err
	}

	sess = New(s.Now())
	if err := s.store.Create(ctx, sess); err != nil {
		return nil, false, err
	}
	return sess, true, nil
}

// Save prunes expired selections, stamps UpdatedAt and writes sess conditioned on its version.
func (s *Service) Save(ctx context.Context, sess *Session) error {
	now := s.Now()
	sess.PruneSelections(now, s.selectionTTL)
	sess.UpdatedAt = now
	return s.store.Save(ctx, sess)
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.store.Delete(ctx, id)
}

// Sweep deletes sessions idle for longer than retention and returns their ids.
func (s *Service) Sweep(ctx context.Context, retention time.Duration) ([]string, error) {
	return s.store.DeleteOlderThan(ctx, s.Now().Add(-retention))
}

func (s *Service) Ping(ctx context.Context) error {
	return s.store.Ping(ctx)
}
