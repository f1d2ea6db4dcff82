package mocks

import (
	"context"
	"sort"
	"sync"

	"github.com/example/mixbox-shop/internal/domain/catalog"
)

// MockCatalog is an in-memory catalog.Repository.
type MockCatalog struct {
	mu       sync.RWMutex
	packages map[string]catalog.Package
	drinks   map[string]catalog.Drink

	GetPackageCalls []string
	GetDrinksCalls  [][]string

	Err error
}

func NewMockCatalog() *MockCatalog {
	return &MockCatalog{
		packages: make(map[string]catalog.Package),
		drinks:   make(map[string]catalog.Drink),
	}
}

func (m *MockCatalog) AddPackage(p catalog.Package) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.packages[p.Slug] = p
}

func (m *MockCatalog) AddDrink(d catalog.Drink) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drinks[d.Slug] = d
}

func (m *MockCatalog) GetPackage(_ context.Context, slug string) (*catalog.Package, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetPackageCalls = append(m.GetPackageCalls, slug)
	if m.Err != nil {
		return nil, m.Err
	}
	p, ok := m.packages[slug]
	if !ok {
		return nil, catalog.ErrPackageNotFound
	}
	return &p, nil
}

func (m *MockCatalog) ListPackages(context.Context) ([]catalog.Package, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]catalog.Package, 0, len(m.packages))
	for _, p := range m.packages {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}

func (m *MockCatalog) GetDrinks(_ context.Context, slugs []string) (map[string]catalog.Drink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.GetDrinksCalls = append(m.GetDrinksCalls, slugs)
	if m.Err != nil {
		return nil, m.Err
	}
	out := make(map[string]catalog.Drink, len(slugs))
	for _, s := range slugs {
		if d, ok := m.drinks[s]; ok {
			out[s] = d
		}
	}
	return out, nil
}

func (m *MockCatalog) ListDrinks(context.Context) ([]catalog.Drink, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.Err != nil {
		return nil, m.Err
	}
	out := make([]catalog.Drink, 0, len(m.drinks))
	for _, d := range m.drinks {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Slug < out[j].Slug })
	return out, nil
}
