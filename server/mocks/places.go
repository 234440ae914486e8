package mocks

import (
	"context"
	"sync"

	"github.com/teilomillet/medtriage/server/provider"
)

// MockPlaces implements provider.PlacesSearcher and records every query.
type MockPlaces struct {
	SearchFunc func(context.Context, provider.NearbyQuery) ([]provider.Place, error)

	mu      sync.Mutex
	queries []provider.NearbyQuery
}

var _ provider.PlacesSearcher = (*MockPlaces)(nil)

// NewMockPlaces creates a MockPlaces. A nil searchFunc returns no places.
func NewMockPlaces(searchFunc func(context.Context, provider.NearbyQuery) ([]provider.Place, error)) *MockPlaces {
	return &MockPlaces{SearchFunc: searchFunc}
}

// SearchNearby records q and delegates to SearchFunc.
func (m *MockPlaces) SearchNearby(ctx context.Context, q provider.NearbyQuery) ([]provider.Place, error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()

	if m.SearchFunc != nil {
		return m.SearchFunc(ctx, q)
	}
	return nil, nil
}

// Calls returns how many searches were made.
func (m *MockPlaces) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// LastQuery returns the most recent query and whether there was one.
func (m *MockPlaces) LastQuery() (provider.NearbyQuery, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.queries) == 0 {
		return provider.NearbyQuery{}, false
	}
	return m.queries[len(m.queries)-1], true
}

// Coord returns a pointer to v, for building places in tests.
func Coord(v float64) *float64 {
	return &v
}
