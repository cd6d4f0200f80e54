package cell

import "sync"

// Signal is a goroutine-safe single-value cell.
//
// It is used for simple shared flags, most notably an action's license
// toggle, which may be flipped by one goroutine and read by the worker
// that executes the action.
type Signal[T any] struct {
	mu  sync.RWMutex
	val T
}

// NewSignal creates a Signal holding the given initial value.
func NewSignal[T any](v T) *Signal[T] {
	return &Signal[T]{val: v}
}

// Get returns the current value.
func (s *Signal[T]) Get() T {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.val
}

// Set replaces the current value.
func (s *Signal[T]) Set(v T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.val = v
}
