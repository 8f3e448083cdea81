// Package testutil provides in-memory fakes for the graph store and
// notification surfaces. Thread-safe, with error injection and call
// hooks, so core behavior can be tested without a repository.
package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/mmbrian/graph-ical-sub001/notify"
	"github.com/mmbrian/graph-ical-sub001/rdf"
	"github.com/mmbrian/graph-ical-sub001/store"
)

// MockGraphStore is an in-memory stand-in for the repository client.
// It records every write and serves scripted reads. Safe for concurrent
// use from multiple goroutines.
type MockGraphStore struct {
	mu      sync.Mutex
	adds    [][]rdf.Triple
	deletes []rdf.Triple

	// Error injection. A non-nil error is returned by the matching
	// method; writes are still recorded.
	AddErr      error
	DeleteErr   error
	ReadErr     error
	DescribeErr error

	// Scripted read results.
	Neighborhoods map[rdf.Resource][]rdf.Triple
	Instances     []store.TypedInstance
	Relations     []rdf.Triple
	HasHistory    bool
	EventRefs     []rdf.Resource
	Descriptions  map[rdf.Resource][]rdf.Triple

	// Hooks run after the call is recorded, outside the lock. Used to
	// observe or delay individual sub-operations.
	OnAdd    func(triples []rdf.Triple)
	OnDelete func(t rdf.Triple)
}

// NewMockGraphStore creates an empty mock store.
func NewMockGraphStore() *MockGraphStore {
	return &MockGraphStore{
		Neighborhoods: make(map[rdf.Resource][]rdf.Triple),
		Descriptions:  make(map[rdf.Resource][]rdf.Triple),
	}
}

// AddStatements records a bulk add.
func (m *MockGraphStore) AddStatements(_ context.Context, triples []rdf.Triple) error {
	m.mu.Lock()
	set := make([]rdf.Triple, len(triples))
	copy(set, triples)
	m.adds = append(m.adds, set)
	hook := m.OnAdd
	m.mu.Unlock()

	if hook != nil {
		hook(set)
	}
	return m.AddErr
}

// DeleteStatement records a single delete.
func (m *MockGraphStore) DeleteStatement(_ context.Context, t rdf.Triple) error {
	m.mu.Lock()
	m.deletes = append(m.deletes, t)
	hook := m.OnDelete
	m.mu.Unlock()

	if hook != nil {
		hook(t)
	}
	return m.DeleteErr
}

// Neighborhood serves the scripted one-hop triples for ref.
func (m *MockGraphStore) Neighborhood(_ context.Context, ref rdf.Resource) ([]rdf.Triple, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]rdf.Triple(nil), m.Neighborhoods[ref]...), nil
}

// InstanceAssertions serves the scripted instance scan.
func (m *MockGraphStore) InstanceAssertions(_ context.Context) ([]store.TypedInstance, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return append([]store.TypedInstance(nil), m.Instances...), nil
}

// RelationAssertions serves the scripted relation scan.
func (m *MockGraphStore) RelationAssertions(_ context.Context) ([]rdf.Triple, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return append([]rdf.Triple(nil), m.Relations...), nil
}

// HasEvents reports the scripted history flag.
func (m *MockGraphStore) HasEvents(_ context.Context) (bool, error) {
	if m.ReadErr != nil {
		return false, m.ReadErr
	}
	return m.HasHistory, nil
}

// EventRefsByTime serves the scripted ordered event scan.
func (m *MockGraphStore) EventRefsByTime(_ context.Context) ([]rdf.Resource, error) {
	if m.ReadErr != nil {
		return nil, m.ReadErr
	}
	return append([]rdf.Resource(nil), m.EventRefs...), nil
}

// Describe serves the scripted description for ref.
func (m *MockGraphStore) Describe(_ context.Context, ref rdf.Resource) ([]rdf.Triple, error) {
	if m.DescribeErr != nil {
		return nil, m.DescribeErr
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]rdf.Triple(nil), m.Descriptions[ref]...), nil
}

// Adds returns the recorded bulk add sets in call order.
func (m *MockGraphStore) Adds() [][]rdf.Triple {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([][]rdf.Triple, len(m.adds))
	copy(out, m.adds)
	return out
}

// AddedTriples returns all added triples flattened across calls.
func (m *MockGraphStore) AddedTriples() []rdf.Triple {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []rdf.Triple
	for _, set := range m.adds {
		out = append(out, set...)
	}
	return out
}

// Deletes returns the recorded deletes in call order.
func (m *MockGraphStore) Deletes() []rdf.Triple {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]rdf.Triple(nil), m.deletes...)
}

// MockBroadcaster counts published notifications.
type MockBroadcaster struct {
	published atomic.Int64
}

// Publish records one notification.
func (b *MockBroadcaster) Publish(notify.Refresh) {
	b.published.Add(1)
}

// Published returns the number of notifications received.
func (b *MockBroadcaster) Published() int64 {
	return b.published.Load()
}
