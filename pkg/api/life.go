package api

import (
	"github.com/jsiltala/acta/internal/cell"
)

// Life is the shared execution context handed by reference to every
// concurrently executing action of a Sequence.
//
// The four stores are independently synchronized; access to one never
// blocks access to another. Life itself carries no lock.
type Life struct {
	// Span holds the named hook functions. Read-mostly after setup.
	Span *cell.Vector[string, HookFunc]

	// Fate is the engine configuration, read-only after construction.
	Fate *Fate

	// Cache memoizes computed results. Use Cache.Memoize for
	// compute-then-store sections; plain Get/Put carry no at-most-once
	// guarantee.
	Cache *cell.Cache

	// Karma is auxiliary shared state crossing action boundaries, e.g.
	// per-action retry counters keyed by action identity.
	Karma *cell.Vector[string, any]
}

// NewLife constructs a Life with empty Span/Karma, a Cache sized by
// fate.CacheTTL, and the given configuration. A nil fate uses DefaultFate.
func NewLife(fate *Fate) *Life {
	if fate == nil {
		fate = DefaultFate()
	}
	return &Life{
		Span:  cell.NewVector[string, HookFunc](),
		Fate:  fate,
		Cache: cell.NewCache(fate.CacheTTL),
		Karma: cell.NewVector[string, any](),
	}
}

// Hook registers fn under name in Span and returns the Life for chaining.
func (l *Life) Hook(name string, fn HookFunc) *Life {
	l.Span.Put(name, fn)
	return l
}
