// Package sequence runs the worker pool that drains a Production and
// dispatches actions through a Site.
package sequence

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/jsiltala/acta/internal/journal"
	"github.com/jsiltala/acta/internal/production"
	"github.com/jsiltala/acta/pkg/api"
)

// Sequence binds a Site, a Production, and a Life, and owns the worker
// pool that drains the queue.
//
// Typical usage:
//
//	seq := sequence.New(api.NewLife(fate))
//	seq.Assign(action)
//	_ = seq.Run(ctx)
//	...
//	seq.Stop()
type Sequence struct {
	site     api.Site
	line     *production.Production
	life     *api.Life
	journal  journal.Journal
	observer api.Observer
	logger   *slog.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	wg      sync.WaitGroup
	running bool
}

// Option customizes a Sequence at construction time.
type Option func(*Sequence)

// WithSite replaces the default ForwardSite dispatcher.
func WithSite(site api.Site) Option {
	return func(s *Sequence) {
		if site != nil {
			s.site = site
		}
	}
}

// WithObserver attaches an Observer to the worker loop.
func WithObserver(obs api.Observer) Option {
	return func(s *Sequence) {
		if obs != nil {
			s.observer = obs
		}
	}
}

// WithJournal records terminal action results into j.
func WithJournal(j journal.Journal) Option {
	return func(s *Sequence) {
		if j != nil {
			s.journal = j
		}
	}
}

// WithLogger replaces the default slog logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Sequence) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// New constructs a Sequence around life with an empty Production. A nil
// life gets default configuration.
func New(life *api.Life, opts ...Option) *Sequence {
	if life == nil {
		life = api.NewLife(nil)
	}
	s := &Sequence{
		site:     api.ForwardSite{},
		line:     production.New(),
		life:     life,
		journal:  journal.NewMemory(),
		observer: api.NoopObserver{},
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Life returns the shared execution context.
func (s *Sequence) Life() *api.Life {
	return s.life
}

// Journal returns the configured terminal-result journal.
func (s *Sequence) Journal() journal.Journal {
	return s.journal
}

// Assign enqueues an action. It never blocks.
func (s *Sequence) Assign(action *api.Action) {
	s.line.Assign(action)
}

// Pending returns the number of actions waiting in the queue.
func (s *Sequence) Pending() int {
	return s.line.Len()
}

// Run starts Fate.Workers worker goroutines, each looping: poll the
// Production, hand any action to the Site, report the result, and suspend
// briefly when the queue is empty. It returns immediately; workers run
// until Stop (or the parent ctx) cancels them.
//
// Calling Run on a running Sequence is an error.
func (s *Sequence) Run(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.running {
		return errors.New("sequence already running")
	}

	workers := s.life.Fate.Workers
	if workers <= 0 {
		workers = 1
	}

	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.running = true

	s.wg.Add(workers)
	for i := 0; i < workers; i++ {
		go s.work(ctx, i)
	}
	return nil
}

// Stop cancels all workers started by Run and waits for them to exit.
// In-flight actions observe the cancellation at their next suspension
// point.
func (s *Sequence) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	cancel := s.cancel
	s.running = false
	s.cancel = nil
	s.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	s.wg.Wait()
}

func (s *Sequence) work(ctx context.Context, id int) {
	defer s.wg.Done()

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		action := s.line.Do()
		if action == nil {
			if err := s.line.Await(ctx, s.life.Fate.PollInterval); err != nil {
				return
			}
			continue
		}

		// A single action's failure never terminates the worker.
		s.handle(ctx, action, id)
	}
}

// ProcessOne handles at most one pending action. Returns (processed,
// error): processed is false when the queue was empty; err is the
// action's terminal error, if any.
func (s *Sequence) ProcessOne(ctx context.Context) (bool, error) {
	action := s.line.Do()
	if action == nil {
		return false, nil
	}
	return true, s.handle(ctx, action, -1)
}

func (s *Sequence) handle(ctx context.Context, action *api.Action, worker int) error {
	s.observer.OnActionStart(ctx, action)

	start := time.Now()
	err := s.site.Receive(ctx, action, s.life)
	duration := time.Since(start)

	result, _ := action.Result()
	if err != nil {
		s.observer.OnActionFailed(ctx, action, err, duration)
		s.logger.ErrorContext(ctx, "action_failed",
			slog.String("action", action.Name()),
			slog.String("action_id", action.ID),
			slog.Int("worker", worker),
			slog.String("kind", string(api.KindOf(err))),
			slog.Any("error", err),
		)
	} else {
		s.observer.OnActionCompleted(ctx, action, result, duration)
		s.logger.InfoContext(ctx, "action_completed",
			slog.String("action", action.Name()),
			slog.String("action_id", action.ID),
			slog.Int("worker", worker),
			slog.Duration("duration", duration),
		)
	}

	s.report(ctx, action, result, err)
	return err
}

// report writes the terminal result to the journal. Journal failures are
// logged, never propagated: reporting must not fail the action.
func (s *Sequence) report(ctx context.Context, action *api.Action, result any, actionErr error) {
	entry := journal.Entry{
		ActionID:   action.ID,
		Name:       action.Name(),
		Result:     result,
		FinishedAt: time.Now().UTC(),
	}
	if v, ok := action.Metadata.Get(api.MetaAttempts); ok {
		if n, ok := v.(int); ok {
			entry.Attempts = n
		}
	}
	if actionErr != nil {
		entry.Result = nil
		entry.Error = actionErr.Error()
		entry.Kind = string(api.KindOf(actionErr))
	}

	if err := s.journal.Record(ctx, entry); err != nil {
		s.logger.WarnContext(ctx, "journal_record_failed",
			slog.String("action_id", action.ID),
			slog.Any("error", err),
		)
	}
}
