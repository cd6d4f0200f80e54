// Package production holds the concurrent work queue that Sequence
// workers drain.
package production

import (
	"context"
	"sync"
	"time"

	"github.com/jsiltala/acta/pkg/api"
)

// Production is the shared queue of pending actions.
//
// Assign never blocks and never fails; Do is a non-blocking poll that is
// safe under arbitrary concurrent callers. Each assigned action is
// delivered to exactly one Do caller, once. There is no strict FIFO
// guarantee across workers, only per-queue ordering of the underlying
// line.
type Production struct {
	mu   sync.Mutex
	line []*api.Action

	// wake is a 1-buffered notification: an Assign wakes at most one
	// idle worker.
	wake chan struct{}
}

// New creates an empty Production.
func New() *Production {
	return &Production{
		wake: make(chan struct{}, 1),
	}
}

// Assign inserts action at the tail of the line and wakes at most one
// idle worker.
func (p *Production) Assign(action *api.Action) {
	p.mu.Lock()
	p.line = append(p.line, action)
	p.mu.Unlock()

	select {
	case p.wake <- struct{}{}:
	default:
	}
}

// Do removes and returns the head action, or nil when the line is empty.
// Any worker may claim any pending action; there is no per-worker
// affinity.
func (p *Production) Do() *api.Action {
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.line) == 0 {
		return nil
	}
	action := p.line[0]
	p.line[0] = nil
	p.line = p.line[1:]
	return action
}

// Await suspends the caller until an assignment arrives, maxIdle elapses,
// or ctx ends. It returns ctx.Err in the last case. A wake-up is a hint,
// not a claim: the caller still races other workers on the next Do.
func (p *Production) Await(ctx context.Context, maxIdle time.Duration) error {
	timer := time.NewTimer(maxIdle)
	defer timer.Stop()

	select {
	case <-p.wake:
		return nil
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Len returns the number of pending actions.
func (p *Production) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.line)
}
