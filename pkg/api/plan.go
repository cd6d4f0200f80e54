package api

import (
	"context"
	"fmt"
	"sync"
)

// Handler is the executable registered under a Signature. It receives the
// action's content as its argument and produces a result value or an error.
//
// Handlers are expected to honor ctx and suspend rather than block, e.g.
// for I/O.
type Handler func(ctx context.Context, arg any) (any, error)

// HookFunc is a named pre-dispatch extension point. Hooks take no argument
// beyond the context; a non-nil error aborts the action.
type HookFunc func(ctx context.Context) error

// Signature is the immutable identity under which a handler is registered
// and an action is dispatched.
type Signature struct {
	Name string
}

// NewSignature creates a Signature for the given name.
func NewSignature(name string) Signature {
	return Signature{Name: name}
}

// Formality is the mutable registry mapping Signatures to handler
// functions. It is a builder: populate it with Add/Remove during setup,
// then Build a Plan for concurrent consumption.
type Formality struct {
	mu       sync.Mutex
	handlers map[Signature]Handler
}

// NewFormality creates an empty registry.
func NewFormality() *Formality {
	return &Formality{handlers: make(map[Signature]Handler)}
}

// Add registers fn under sig. Duplicate registration is an error, not a
// silent overwrite.
func (f *Formality) Add(sig Signature, fn Handler) error {
	if sig.Name == "" {
		return fmt.Errorf("signature name is required")
	}
	if fn == nil {
		return fmt.Errorf("handler for %q must not be nil", sig.Name)
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if _, exists := f.handlers[sig]; exists {
		return fmt.Errorf("handler already registered for signature %q", sig.Name)
	}
	f.handlers[sig] = fn
	return nil
}

// Remove deletes and returns the handler for sig, if present.
func (f *Formality) Remove(sig Signature) (Handler, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()

	fn, ok := f.handlers[sig]
	if ok {
		delete(f.handlers, sig)
	}
	return fn, ok
}

// Build freezes the current registrations into a Plan. The Formality can
// keep being mutated afterwards without affecting built Plans.
func (f *Formality) Build() *Plan {
	f.mu.Lock()
	defer f.mu.Unlock()

	handlers := make(map[Signature]Handler, len(f.handlers))
	for sig, fn := range f.handlers {
		handlers[sig] = fn
	}
	return &Plan{handlers: handlers}
}

// Plan is the built, shared form of a Formality. Lookup is destructive:
// each registered handler is consumed exactly once across the Plan's
// lifetime. Callers that need repeated dispatch of the same signature must
// register it again or build a fresh Plan.
type Plan struct {
	mu       sync.Mutex
	handlers map[Signature]Handler
}

// Resolve removes and returns the handler for sig. The remove-and-return
// is atomic: of any number of concurrent resolvers for the same signature,
// exactly one observes the handler.
func (p *Plan) Resolve(sig Signature) (Handler, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	fn, ok := p.handlers[sig]
	if ok {
		delete(p.handlers, sig)
	}
	return fn, ok
}

// Len returns the number of unconsumed handlers.
func (p *Plan) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.handlers)
}
