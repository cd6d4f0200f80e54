package api

import (
	"context"
	"log/slog"
	"sync/atomic"
	"time"
)

// Observer receives callbacks from the Sequence worker loop for logging
// and metrics.
//
// Implementations should be fast and non-blocking; heavy work should be
// done asynchronously so as not to delay action execution.
type Observer interface {
	// OnActionStart is called when a worker picks an action off the
	// queue, before the Site receives it.
	OnActionStart(ctx context.Context, action *Action)

	// OnActionCompleted is called when an action's pipeline (including
	// any chained continuations) finishes successfully.
	OnActionCompleted(ctx context.Context, action *Action, result any, duration time.Duration)

	// OnActionFailed is called when an action terminates with an error.
	OnActionFailed(ctx context.Context, action *Action, err error, duration time.Duration)
}

// NoopObserver is an Observer that does nothing. It is the default when
// no observer is configured.
type NoopObserver struct{}

func (NoopObserver) OnActionStart(ctx context.Context, action *Action) {}
func (NoopObserver) OnActionCompleted(ctx context.Context, action *Action, result any, d time.Duration) {
}
func (NoopObserver) OnActionFailed(ctx context.Context, action *Action, err error, d time.Duration) {}

// CompositeObserver fans out events to multiple observers.
type CompositeObserver struct {
	observers []Observer
}

// NewCompositeObserver creates an Observer that forwards events to each
// non-nil observer in obs.
func NewCompositeObserver(obs ...Observer) Observer {
	filtered := make([]Observer, 0, len(obs))
	for _, o := range obs {
		if o != nil {
			filtered = append(filtered, o)
		}
	}
	if len(filtered) == 0 {
		return NoopObserver{}
	}
	if len(filtered) == 1 {
		return filtered[0]
	}
	return &CompositeObserver{observers: filtered}
}

func (c *CompositeObserver) OnActionStart(ctx context.Context, action *Action) {
	for _, o := range c.observers {
		o.OnActionStart(ctx, action)
	}
}

func (c *CompositeObserver) OnActionCompleted(ctx context.Context, action *Action, result any, d time.Duration) {
	for _, o := range c.observers {
		o.OnActionCompleted(ctx, action, result, d)
	}
}

func (c *CompositeObserver) OnActionFailed(ctx context.Context, action *Action, err error, d time.Duration) {
	for _, o := range c.observers {
		o.OnActionFailed(ctx, action, err, d)
	}
}

// LoggingObserver writes structured logs using log/slog.
type LoggingObserver struct {
	Logger *slog.Logger
}

// NewLoggingObserver creates an Observer that logs action lifecycle
// events using the provided slog.Logger. If logger is nil, slog.Default()
// is used.
func NewLoggingObserver(logger *slog.Logger) Observer {
	if logger == nil {
		logger = slog.Default()
	}
	return &LoggingObserver{Logger: logger}
}

func (o *LoggingObserver) OnActionStart(ctx context.Context, action *Action) {
	o.Logger.DebugContext(ctx, "action_start",
		slog.String("action", action.Name()),
		slog.String("action_id", action.ID),
	)
}

func (o *LoggingObserver) OnActionCompleted(ctx context.Context, action *Action, result any, d time.Duration) {
	o.Logger.InfoContext(ctx, "action_completed",
		slog.String("action", action.Name()),
		slog.String("action_id", action.ID),
		slog.Duration("duration", d),
	)
}

func (o *LoggingObserver) OnActionFailed(ctx context.Context, action *Action, err error, d time.Duration) {
	o.Logger.ErrorContext(ctx, "action_failed",
		slog.String("action", action.Name()),
		slog.String("action_id", action.ID),
		slog.String("kind", string(KindOf(err))),
		slog.Duration("duration", d),
		slog.Any("error", err),
	)
}

// BasicMetrics collects simple counters and aggregate durations. It
// implements Observer and can be combined with LoggingObserver via
// NewCompositeObserver.
type BasicMetrics struct {
	NoopObserver

	started       atomic.Int64
	completed     atomic.Int64
	failed        atomic.Int64
	totalDuration atomic.Int64 // nanoseconds
}

// BasicMetricsSnapshot is an immutable snapshot of BasicMetrics.
type BasicMetricsSnapshot struct {
	Started   int64
	Completed int64
	Failed    int64
	InFlight  int64

	AvgDuration time.Duration
}

func (m *BasicMetrics) OnActionStart(ctx context.Context, action *Action) {
	m.started.Add(1)
}

func (m *BasicMetrics) OnActionCompleted(ctx context.Context, action *Action, result any, d time.Duration) {
	m.completed.Add(1)
	m.totalDuration.Add(d.Nanoseconds())
}

func (m *BasicMetrics) OnActionFailed(ctx context.Context, action *Action, err error, d time.Duration) {
	m.failed.Add(1)
}

// Snapshot returns a snapshot of the current metrics.
func (m *BasicMetrics) Snapshot() BasicMetricsSnapshot {
	started := m.started.Load()
	completed := m.completed.Load()
	failed := m.failed.Load()
	totalNs := m.totalDuration.Load()

	var avg time.Duration
	if completed > 0 {
		avg = time.Duration(totalNs / completed)
	}

	return BasicMetricsSnapshot{
		Started:     started,
		Completed:   completed,
		Failed:      failed,
		InFlight:    started - completed - failed,
		AvgDuration: avg,
	}
}
