package mocks

import (
	"context"
	"sync"

	"github.com/example/mixbox-shop/internal/readmodel"
)

// MockSummaryStore is an in-memory basket summary store.
type MockSummaryStore struct {
	mu   sync.RWMutex
	data map[string]readmodel.BasketSummary

	UpsertCalls []readmodel.BasketSummary
	DeleteCalls []string
	DeleteErr   error
}

func NewMockSummaryStore() *MockSummaryStore {
	return &MockSummaryStore{data: make(map[string]readmodel.BasketSummary)}
}

func (m *MockSummaryStore) Get(_ context.Context, sessionID string) (*readmodel.BasketSummary, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.data[sessionID]
	if !ok {
		return nil, false, nil
	}
	return &s, true, nil
}

func (m *MockSummaryStore) Upsert(_ context.Context, s *readmodel.BasketSummary) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertCalls = append(m.UpsertCalls, *s)
	m.data[s.SessionID] = *s
	return nil
}

func (m *MockSummaryStore) Delete(_ context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeleteCalls = append(m.DeleteCalls, sessionID)
	if m.DeleteErr != nil {
		return m.DeleteErr
	}
	delete(m.data, sessionID)
	return nil
}
