package api

import (
	"context"
	"log/slog"
	"time"
)

// Site is the pluggable dispatcher the orchestrator hands each dequeued
// action to. The indirection lets an embedding application intercept
// dispatch (tracing, routing, sandboxing) without modifying the engine.
type Site interface {
	Receive(ctx context.Context, action *Action, life *Life) error
}

// ForwardSite is the reference Site: it simply forwards to the action's
// own execution.
type ForwardSite struct{}

var _ Site = ForwardSite{}

func (ForwardSite) Receive(ctx context.Context, action *Action, life *Life) error {
	_, err := action.Execute(ctx, life)
	return err
}

// TraceSite wraps another Site and logs each dispatch with its outcome
// and duration via slog.
type TraceSite struct {
	Next   Site
	Logger *slog.Logger
}

// NewTraceSite wraps next with dispatch logging. A nil logger uses
// slog.Default; a nil next uses ForwardSite.
func NewTraceSite(next Site, logger *slog.Logger) *TraceSite {
	if next == nil {
		next = ForwardSite{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TraceSite{Next: next, Logger: logger}
}

func (s *TraceSite) Receive(ctx context.Context, action *Action, life *Life) error {
	start := time.Now()
	err := s.Next.Receive(ctx, action, life)

	level := slog.LevelDebug
	if err != nil {
		level = slog.LevelError
	}
	s.Logger.Log(ctx, level, "action_dispatched",
		slog.String("action", action.Name()),
		slog.String("action_id", action.ID),
		slog.String("phase", action.Phase()),
		slog.Duration("duration", time.Since(start)),
		slog.Any("error", err),
	)
	return err
}
