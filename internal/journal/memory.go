package journal

import (
	"context"
	"sync"
)

// Memory is a goroutine-safe Journal kept entirely in process memory.
// Best for tests and single-process deployments that don't need the
// results to outlive the process.
type Memory struct {
	mu      sync.RWMutex
	entries []Entry
	byID    map[string]int
}

// NewMemory creates an empty in-memory journal.
func NewMemory() *Memory {
	return &Memory{byID: make(map[string]int)}
}

var _ Journal = (*Memory)(nil)

func (m *Memory) Record(ctx context.Context, e Entry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.entries = append(m.entries, e)
	m.byID[e.ActionID] = len(m.entries) - 1
	return nil
}

func (m *Memory) Get(ctx context.Context, actionID string) (Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	i, ok := m.byID[actionID]
	if !ok {
		return Entry{}, ErrNotFound
	}
	return m.entries[i], nil
}

func (m *Memory) List(ctx context.Context, f Filter) ([]Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Entry
	for _, e := range m.entries {
		if f.Name != "" && e.Name != f.Name {
			continue
		}
		if f.FailedOnly && !e.Failed() {
			continue
		}
		out = append(out, e)
	}
	return out, nil
}

// Len returns the number of recorded entries.
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
