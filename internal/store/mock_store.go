package store

import (
	"context"
	"sync"

	"github.com/ajitpratap0/marquee/internal/timeline"
)

// MockStore is an in-memory implementation of Store for testing.
type MockStore struct {
	mu          sync.RWMutex
	closed      bool
	schema      bool
	pushes      int
	productions map[string]productionRow
	persons     map[string]string
	appearances map[appearanceRow]struct{}
	edges       map[[2]string]int

	// PushErr, when set, is returned by PushGraph.
	PushErr error
}

// NewMockStore creates a new mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		productions: make(map[string]productionRow),
		persons:     make(map[string]string),
		appearances: make(map[appearanceRow]struct{}),
		edges:       make(map[[2]string]int),
	}
}

// EnsureSchema records that the schema was requested.
func (m *MockStore) EnsureSchema(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrNotConnected
	}
	m.schema = true
	return nil
}

// PushGraph replaces everything stored with the flattened model.
func (m *MockStore) PushGraph(_ context.Context, model *timeline.Model) (*PushStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrNotConnected
	}
	if m.PushErr != nil {
		return nil, m.PushErr
	}

	prods, apps, edges := flatten(model)

	m.productions = make(map[string]productionRow, len(prods))
	for _, p := range prods {
		m.productions[p.ID] = p
	}
	m.persons = make(map[string]string)
	m.appearances = make(map[appearanceRow]struct{}, len(apps))
	m.edges = make(map[[2]string]int, len(edges))
	for _, a := range apps {
		m.persons[a.PersonID] = a.Name
		m.appearances[a] = struct{}{}
	}
	for _, e := range edges {
		for _, id := range []string{e.From, e.To} {
			if _, ok := m.persons[id]; !ok {
				m.persons[id] = id
			}
		}
		m.edges[[2]string{e.From, e.To}] = e.Weight
	}
	m.pushes++

	return &PushStats{
		Generation:  model.Generation,
		Productions: len(prods),
		Appearances: len(apps),
		Edges:       len(edges),
	}, nil
}

// Ping reports ErrNotConnected after Close.
func (m *MockStore) Ping(_ context.Context) error {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return ErrNotConnected
	}
	return nil
}

// Close marks the store closed.
func (m *MockStore) Close(_ context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Pushes returns how many times PushGraph succeeded.
func (m *MockStore) Pushes() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pushes
}

// SchemaEnsured reports whether EnsureSchema was called.
func (m *MockStore) SchemaEnsured() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.schema
}

// ProductionIDs returns the ids of the stored productions.
func (m *MockStore) ProductionIDs() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]string, 0, len(m.productions))
	for id := range m.productions {
		out = append(out, id)
	}
	return out
}

// PersonName returns the display name stored for a person id.
func (m *MockStore) PersonName(id string) (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	name, ok := m.persons[id]
	return name, ok
}

// EdgeWeight returns the weight of the WORKS_WITH edge between two ids.
func (m *MockStore) EdgeWeight(from, to string) (int, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.edges[[2]string{from, to}]
	return w, ok
}

// Appearances returns how many distinct appearances are stored.
func (m *MockStore) Appearances() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.appearances)
}
