package mocks

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/example/mixbox-shop/internal/domain/session"
)

// MockSessionStore is an in-memory session.Store that records calls.
// Sessions are stored as JSON so callers never share state with the store.
type MockSessionStore struct {
	mu   sync.RWMutex
	data map[string][]byte

	CreateCalls []string
	SaveCalls   []string
	DeleteCalls []string
	SweepCalls  []time.Time

	// GetErr, SaveErr and PingErr are returned when set.
	GetErr  error
	SaveErr error
	PingErr error
}

func NewMockSessionStore() *MockSessionStore {
	return &MockSessionStore{data: make(map[string][]byte)}
}

func (m *MockSessionStore) Get(_ context.Context, id string) (*session.Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.GetErr != nil {
		return nil, m.GetErr
	}
	raw, ok := m.data[id]
	if !ok {
		return nil, session.ErrSessionNotFound
	}
	var s session.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, err
	}
	return &s, nil
}

func (m *MockSessionStore) Create(_ context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.CreateCalls = append(m.CreateCalls, s.ID)
	s.Version = 1
	return m.put(s)
}

func (m *MockSessionStore) Save(_ context.Context, s *session.Session) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SaveCalls = append(m.SaveCalls, s.ID)
	if m.SaveErr != nil {
		return m.SaveErr
	}
	raw, ok := m.data[s.ID]
	if !ok {
		return session.ErrSessionNotFound
	}
	var stored session.Session
	if err := json.Unmarshal(raw, &stored); err != nil {
		return err
	}
	if stored.Version != s.Version {
		return session.ErrVersionConflict
	}
	s.Version++
	return m.put(s)
}

func (m *MockSessionStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.DeleteCalls = append(m.DeleteCalls, id)
	delete(m.data, id)
	return nil
}

func (m *MockSessionStore) DeleteOlderThan(_ context.Context, cutoff time.Time) ([]string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.SweepCalls = append(m.SweepCalls, cutoff)
	var ids []string
	for id, raw := range m.data {
		var s session.Session
		if err := json.Unmarshal(raw, &s); err != nil {
			return ids, err
		}
		if s.UpdatedAt.Before(cutoff) {
			delete(m.data, id)
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (m *MockSessionStore) Ping(context.Context) error {
	return m.PingErr
}

// SetData stores s directly without recording a call.
func (m *MockSessionStore) SetData(s *session.Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_ = m.put(s)
}

// GetData reads a session without recording a call.
func (m *MockSessionStore) GetData(id string) (*session.Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	raw, ok := m.data[id]
	if !ok {
		return nil, false
	}
	var s session.Session
	if err := json.Unmarshal(raw, &s); err != nil {
		return nil, false
	}
	return &s, true
}

func (m *MockSessionStore) put(s *session.Session) error {
	raw, err := json.Marshal(s)
	if err != nil {
		return err
	}
	m.data[s.ID] = raw
	return nil
}
