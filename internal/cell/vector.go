package cell

import "sync"

// Vector is a goroutine-safe associative store.
//
// It backs every named, concurrently accessed key/value mapping in the
// engine: action metadata, the hook registry, and auxiliary shared state.
// Writes to the same key are last-write-wins; no ordering is guaranteed
// between a write and a subsequent read from another goroutine beyond the
// map's own consistency.
type Vector[K comparable, V any] struct {
	mu sync.RWMutex
	m  map[K]V
}

// NewVector creates an empty Vector.
func NewVector[K comparable, V any]() *Vector[K, V] {
	return &Vector[K, V]{m: make(map[K]V)}
}

// Put inserts or replaces the value for key.
func (v *Vector[K, V]) Put(key K, val V) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.m[key] = val
}

// Get returns the value for key and whether it was present.
func (v *Vector[K, V]) Get(key K) (V, bool) {
	v.mu.RLock()
	defer v.mu.RUnlock()
	val, ok := v.m[key]
	return val, ok
}

// Delete removes key and returns its value, if it was present.
func (v *Vector[K, V]) Delete(key K) (V, bool) {
	v.mu.Lock()
	defer v.mu.Unlock()
	val, ok := v.m[key]
	if ok {
		delete(v.m, key)
	}
	return val, ok
}

// Len returns the number of stored entries.
func (v *Vector[K, V]) Len() int {
	v.mu.RLock()
	defer v.mu.RUnlock()
	return len(v.m)
}

// Keys returns a snapshot of the stored keys, in no particular order.
func (v *Vector[K, V]) Keys() []K {
	v.mu.RLock()
	defer v.mu.RUnlock()
	keys := make([]K, 0, len(v.m))
	for k := range v.m {
		keys = append(keys, k)
	}
	return keys
}
