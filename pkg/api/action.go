package api

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/google/uuid"
	"github.com/looplab/fsm"

	"github.com/jsiltala/acta/internal/cell"
)

// Well-known metadata keys consumed by the action pipeline. Everything but
// MetaName is optional and defaults to a no-op.
const (
	// MetaName is the action name; it doubles as the handler signature.
	// Its absence is a routing error.
	MetaName = "name"

	// MetaDelay (time.Duration) suspends execution before the hooks run.
	MetaDelay = "delay"

	// MetaHooks ([]string) is the ordered list of hook names to invoke
	// before dispatch. Unknown names are skipped.
	MetaHooks = "hooks"

	// MetaNext (*Action) is the follow-up action executed as a direct
	// continuation after a successful result.
	MetaNext = "next"

	// MetaResult receives the handler's result value on success.
	MetaResult = "result"

	// MetaAttempts receives the number of handler attempts consumed.
	MetaAttempts = "attempts"
)

// Pipeline phases reported by Action.Phase.
const (
	PhasePending    = "pending"
	PhaseResolved   = "resolved"
	PhaseLicensed   = "licensed"
	PhaseDelayed    = "delayed"
	PhaseHooked     = "hooked"
	PhaseDispatched = "dispatched"
	PhaseCompleted  = "completed"
	PhaseFailed     = "failed"
)

// Action is one schedulable unit of work: metadata, argument content, a
// license flag, and a reference to the Plan holding its handler.
//
// An Action is exclusively owned by whichever queue or worker currently
// holds it; once dequeued it is never executed by two workers at once.
type Action struct {
	// ID identifies the action in the journal and in Life.Karma.
	ID string

	// Metadata carries the action name plus the optional delay, hook
	// list, continuation, and the recorded result.
	Metadata *cell.Vector[string, any]

	// Content is the argument payload passed to the handler.
	Content any

	// License gates execution. It is checked before any side effect, so
	// an unlicensed action costs a worker nothing beyond the check.
	License *cell.Signal[bool]

	// Plan is where this action's handler lives.
	Plan *Plan

	phase *fsm.FSM
}

// NewAction creates an action named name with the given content, bound to
// plan. The license starts out denied; call Permit (or License.Set) to
// authorize execution.
func NewAction(name string, content any, plan *Plan) *Action {
	a := &Action{
		ID:       uuid.NewString(),
		Metadata: cell.NewVector[string, any](),
		Content:  content,
		License:  cell.NewSignal(false),
		Plan:     plan,
	}
	if name != "" {
		a.Metadata.Put(MetaName, name)
	}
	return a
}

// Permit authorizes the action and returns it for chaining.
func (a *Action) Permit() *Action {
	a.License.Set(true)
	return a
}

// Name returns the action name from metadata, or "" if unset.
func (a *Action) Name() string {
	v, ok := a.Metadata.Get(MetaName)
	if !ok {
		return ""
	}
	name, _ := v.(string)
	return name
}

// Result returns the recorded handler result, if the action has one.
func (a *Action) Result() (any, bool) {
	return a.Metadata.Get(MetaResult)
}

// Phase reports how far the most recent Execute progressed. Before the
// first Execute it returns PhasePending.
func (a *Action) Phase() string {
	if a.phase == nil {
		return PhasePending
	}
	return a.phase.Current()
}

// newPhaseMachine builds the per-execution phase tracker. The transition
// table is the pipeline order; an abort is legal from any live phase.
func newPhaseMachine() *fsm.FSM {
	live := []string{
		PhasePending, PhaseResolved, PhaseLicensed,
		PhaseDelayed, PhaseHooked, PhaseDispatched,
	}
	return fsm.NewFSM(
		PhasePending,
		fsm.Events{
			{Name: "resolve", Src: []string{PhasePending}, Dst: PhaseResolved},
			{Name: "license", Src: []string{PhaseResolved}, Dst: PhaseLicensed},
			{Name: "delay", Src: []string{PhaseLicensed}, Dst: PhaseDelayed},
			{Name: "hook", Src: []string{PhaseDelayed}, Dst: PhaseHooked},
			{Name: "dispatch", Src: []string{PhaseHooked}, Dst: PhaseDispatched},
			{Name: "complete", Src: []string{PhaseDispatched}, Dst: PhaseCompleted},
			{Name: "abort", Src: live, Dst: PhaseFailed},
		},
		fsm.Callbacks{},
	)
}

// Execute runs the action pipeline under life and returns the terminal
// result value.
//
// Stages run in strict order: resolve, license, delay, hooks, dispatch
// with retries, result recording, continuation. Each stage either
// completes or produces exactly one typed error that aborts the rest.
// A successful continuation's result (or its error) replaces this
// action's own as the overall return.
func (a *Action) Execute(ctx context.Context, life *Life) (any, error) {
	a.phase = newPhaseMachine()

	fail := func(err error) (any, error) {
		_ = a.phase.Event(ctx, "abort")
		return nil, err
	}

	// Resolve.
	name := a.Name()
	if name == "" {
		return fail(Errf(KindRouting, "resolve", "action %s has no name", a.ID))
	}
	_ = a.phase.Event(ctx, "resolve")

	// License.
	if !a.License.Get() {
		return fail(Errf(KindLicense, name, "action is not licensed"))
	}
	_ = a.phase.Event(ctx, "license")

	// Delay.
	if err := a.waitDelay(ctx, name); err != nil {
		return fail(err)
	}
	_ = a.phase.Event(ctx, "delay")

	// Hooks.
	if err := a.runHooks(ctx, life); err != nil {
		return fail(err)
	}
	_ = a.phase.Event(ctx, "hook")

	// Dispatch. Lookup is destructive: this execution consumes the
	// handler registration.
	if a.Plan == nil {
		return fail(Errf(KindRouting, name, "action has no plan"))
	}
	handler, ok := a.Plan.Resolve(NewSignature(name))
	if !ok {
		return fail(Errf(KindRouting, name, "no handler registered for signature"))
	}
	_ = a.phase.Event(ctx, "dispatch")

	out, err := a.dispatch(ctx, life, name, handler)
	if err != nil {
		return fail(err)
	}

	a.Metadata.Put(MetaResult, out)
	_ = a.phase.Event(ctx, "complete")

	// Continuation: a follow-up action runs as a direct recursive call on
	// this same worker, never re-enqueued, so a chain is not interleaved
	// with unrelated queued actions.
	if v, ok := a.Metadata.Get(MetaNext); ok {
		next, ok := v.(*Action)
		if !ok {
			return nil, Errf(KindRouting, name, "metadata %q is %T, want *Action", MetaNext, v)
		}
		return next.Execute(ctx, life)
	}

	return out, nil
}

func (a *Action) waitDelay(ctx context.Context, name string) error {
	v, ok := a.Metadata.Get(MetaDelay)
	if !ok {
		return nil
	}
	d, ok := v.(time.Duration)
	if !ok || d <= 0 {
		return nil
	}

	select {
	case <-ctx.Done():
		return WrapErr(KindCancellation, name, ctx.Err())
	case <-time.After(d):
		return nil
	}
}

func (a *Action) runHooks(ctx context.Context, life *Life) error {
	v, ok := a.Metadata.Get(MetaHooks)
	if !ok {
		return nil
	}
	names, ok := v.([]string)
	if !ok {
		return Errf(KindRouting, a.Name(), "metadata %q is %T, want []string", MetaHooks, v)
	}

	for _, hookName := range names {
		hook, ok := life.Span.Get(hookName)
		if !ok {
			// Hooks are best-effort extension points; unknown names
			// are skipped, not errors.
			continue
		}
		if err := hook(ctx); err != nil {
			// A hook failure aborts the whole action and is never
			// retried.
			return WrapErr(KindExecution, "hook "+hookName, err)
		}
	}
	return nil
}

// dispatch invokes the handler, applying the Fate retry policy. The
// retried action stays with the calling worker; it does not re-acquire a
// queue slot between attempts.
func (a *Action) dispatch(ctx context.Context, life *Life, name string, handler Handler) (any, error) {
	policy := life.Fate.Retry
	maxAttempts := policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = policy.InitialBackoff
	bo.Multiplier = policy.BackoffMultiplier
	if policy.MaxBackoff > 0 {
		bo.MaxInterval = policy.MaxBackoff
	}
	// Deterministic waits; attempts are bounded by count, not by time.
	bo.RandomizationFactor = 0
	bo.MaxElapsedTime = 0
	bo.Reset()

	var lastErr error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		a.Metadata.Put(MetaAttempts, attempt)

		out, err := handler(ctx, a.Content)
		if err == nil {
			return out, nil
		}
		lastErr = err
		a.bumpKarma(life)

		if ctx.Err() != nil {
			return nil, WrapErr(KindCancellation, name, ctx.Err())
		}
		if attempt == maxAttempts {
			break
		}

		if wait := bo.NextBackOff(); wait > 0 {
			select {
			case <-ctx.Done():
				return nil, WrapErr(KindCancellation, name, ctx.Err())
			case <-time.After(wait):
			}
		}
	}

	return nil, WrapErr(KindExecution, "dispatch "+name, lastErr)
}

// bumpKarma increments this action's failure counter in Life.Karma.
func (a *Action) bumpKarma(life *Life) {
	key := "attempts:" + a.ID
	n := 0
	if v, ok := life.Karma.Get(key); ok {
		if i, ok := v.(int); ok {
			n = i
		}
	}
	life.Karma.Put(key, n+1)
}
