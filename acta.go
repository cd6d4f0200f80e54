package acta

import (
	"context"
	"database/sql"

	"github.com/jsiltala/acta/internal/journal"
	"github.com/jsiltala/acta/pkg/api"
	"github.com/jsiltala/acta/pkg/sequence"
)

// Re-export key types so users don't need to dig into pkg/api.

type (
	Action               = api.Action
	ActionRecord         = api.ActionRecord
	Signature            = api.Signature
	Formality            = api.Formality
	Plan                 = api.Plan
	Handler              = api.Handler
	HookFunc             = api.HookFunc
	Life                 = api.Life
	Fate                 = api.Fate
	RetryPolicy          = api.RetryPolicy
	Site                 = api.Site
	ForwardSite          = api.ForwardSite
	TraceSite            = api.TraceSite
	Error                = api.Error
	Kind                 = api.Kind
	Observer             = api.Observer
	NoopObserver         = api.NoopObserver
	CompositeObserver    = api.CompositeObserver
	LoggingObserver      = api.LoggingObserver
	BasicMetrics         = api.BasicMetrics
	BasicMetricsSnapshot = api.BasicMetricsSnapshot
	Sequence             = sequence.Sequence
	SequenceOption       = sequence.Option
)

// Re-export the error kinds.

const (
	KindLicense      = api.KindLicense
	KindExecution    = api.KindExecution
	KindRouting      = api.KindRouting
	KindCancellation = api.KindCancellation
)

// Re-export the well-known metadata keys.

const (
	MetaName     = api.MetaName
	MetaDelay    = api.MetaDelay
	MetaHooks    = api.MetaHooks
	MetaNext     = api.MetaNext
	MetaResult   = api.MetaResult
	MetaAttempts = api.MetaAttempts
)

// Re-export common constructors and helpers.

var (
	NewSignature = api.NewSignature
	NewFormality = api.NewFormality
	NewAction    = api.NewAction
	NewLife      = api.NewLife
	DefaultFate  = api.DefaultFate
	ParseFate    = api.ParseFate
	LoadFate     = api.LoadFate

	NewLoggingObserver   = api.NewLoggingObserver
	NewCompositeObserver = api.NewCompositeObserver
	NewTraceSite         = api.NewTraceSite

	ConstHandler = api.ConstHandler
	SleepHandler = api.SleepHandler

	EncodeRecord = api.EncodeRecord
	DecodeRecord = api.DecodeRecord
	KindOf       = api.KindOf
	IsKind       = api.IsKind

	WithSite     = sequence.WithSite
	WithObserver = sequence.WithObserver
	WithLogger   = sequence.WithLogger
)

// Sequence constructors. These wrap pkg/sequence and internal/journal so
// external callers never need to import internal packages.

// NewSequence returns a Sequence whose terminal results are kept in an
// in-memory journal. A nil life uses default configuration.
func NewSequence(life *Life, opts ...SequenceOption) *Sequence {
	return sequence.New(life, opts...)
}

// NewSQLiteSequence returns a Sequence that records terminal action
// results in a SQLite database. The caller is responsible for importing
// a SQLite driver, e.g.:
//
//	import _ "modernc.org/sqlite"
func NewSQLiteSequence(db *sql.DB, life *Life, opts ...SequenceOption) (*Sequence, error) {
	j, err := journal.NewSQLite(db)
	if err != nil {
		return nil, err
	}
	opts = append(opts, sequence.WithJournal(j))
	return sequence.New(life, opts...), nil
}

// Convenience helpers that just forward to the underlying types.

// Execute runs a single action synchronously under life, outside any
// Sequence.
func Execute(ctx context.Context, action *Action, life *Life) (any, error) {
	return action.Execute(ctx, life)
}

// TypedHandler wraps a strongly-typed function into a Handler.
func TypedHandler[I, O any](fn func(context.Context, I) (O, error)) Handler {
	return api.TypedHandler(fn)
}
