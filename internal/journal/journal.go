// Package journal records the terminal result of every action a Sequence
// processes.
//
// The journal is a reporting sink, not action persistence: the engine
// never reads it back to resume work, so a restart loses nothing it
// promised to keep.
package journal

import (
	"context"
	"errors"
	"time"
)

// ErrNotFound is returned when a lookup by action ID misses.
var ErrNotFound = errors.New("journal: entry not found")

// Entry is one terminal action result.
type Entry struct {
	ActionID string
	Name     string

	// Result is the recorded handler result; nil for failed actions.
	Result any

	// Error is the terminal error string, "" on success.
	Error string

	// Kind is the error kind, "" on success.
	Kind string

	// Attempts is the number of handler attempts consumed, 0 if dispatch
	// was never reached.
	Attempts int

	FinishedAt time.Time
}

// Failed reports whether the entry records a failure.
func (e Entry) Failed() bool {
	return e.Error != ""
}

// Filter narrows List results. Zero values mean "no filter".
type Filter struct {
	// Name, if non-empty, limits results to actions with the given name.
	Name string

	// FailedOnly limits results to failed actions.
	FailedOnly bool
}

// Journal stores terminal action results.
type Journal interface {
	// Record appends an entry. Entries are immutable once recorded.
	Record(ctx context.Context, e Entry) error

	// Get returns the most recent entry for the given action ID.
	Get(ctx context.Context, actionID string) (Entry, error)

	// List returns entries matching the filter, oldest first.
	List(ctx context.Context, f Filter) ([]Entry, error)
}
