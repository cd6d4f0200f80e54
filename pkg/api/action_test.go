package api

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"
)

func singleActionPlan(t *testing.T, name string, fn Handler) *Plan {
	t.Helper()
	f := NewFormality()
	if err := f.Add(NewSignature(name), fn); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	return f.Build()
}

func TestExecute_ReturnsHandlerResult(t *testing.T) {
	ctx := context.Background()
	life := NewLife(nil)

	plan := singleActionPlan(t, "greet", func(ctx context.Context, arg any) (any, error) {
		return "hello " + arg.(string), nil
	})

	a := NewAction("greet", "world", plan).Permit()

	out, err := a.Execute(ctx, life)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "hello world" {
		t.Fatalf("unexpected result: %v", out)
	}

	stored, ok := a.Result()
	if !ok || stored != "hello world" {
		t.Fatalf("expected result recorded in metadata, got %v (ok=%v)", stored, ok)
	}
	if a.Phase() != PhaseCompleted {
		t.Fatalf("expected phase %q, got %q", PhaseCompleted, a.Phase())
	}
}

func TestExecute_Unlicensed_NeverInvokesHandler(t *testing.T) {
	ctx := context.Background()
	life := NewLife(nil)

	var calls int32
	plan := singleActionPlan(t, "guarded", func(ctx context.Context, arg any) (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, nil
	})

	a := NewAction("guarded", nil, plan) // license stays denied

	_, err := a.Execute(ctx, life)
	if !IsKind(err, KindLicense) {
		t.Fatalf("expected license error, got %v", err)
	}
	if atomic.LoadInt32(&calls) != 0 {
		t.Fatalf("handler must not run for an unlicensed action")
	}
	if a.Phase() != PhaseFailed {
		t.Fatalf("expected phase %q, got %q", PhaseFailed, a.Phase())
	}

	// The handler was not consumed either.
	if _, ok := a.Plan.Resolve(NewSignature("guarded")); !ok {
		t.Fatalf("handler should still be registered after license failure")
	}
}

func TestExecute_MissingName_RoutingError(t *testing.T) {
	ctx := context.Background()
	life := NewLife(nil)

	plan := NewFormality().Build()
	a := NewAction("", "content", plan).Permit()
	a.Metadata.Put(MetaDelay, time.Hour) // must never be reached

	_, err := a.Execute(ctx, life)
	if !IsKind(err, KindRouting) {
		t.Fatalf("expected routing error, got %v", err)
	}
}

func TestExecute_UnknownSignature_RoutingError(t *testing.T) {
	ctx := context.Background()
	life := NewLife(nil)

	plan := NewFormality().Build()
	a := NewAction("missing", nil, plan).Permit()

	_, err := a.Execute(ctx, life)
	if !IsKind(err, KindRouting) {
		t.Fatalf("expected routing error, got %v", err)
	}
}

func TestExecute_Delay(t *testing.T) {
	ctx := context.Background()
	life := NewLife(nil)

	plan := singleActionPlan(t, "slow", okHandler("done"))
	a := NewAction("slow", nil, plan).Permit()
	a.Metadata.Put(MetaDelay, 30*time.Millisecond)

	start := time.Now()
	out, err := a.Execute(ctx, life)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "done" {
		t.Fatalf("unexpected result: %v", out)
	}
	if elapsed := time.Since(start); elapsed < 30*time.Millisecond {
		t.Fatalf("expected at least 30ms elapsed, got %v", elapsed)
	}
}

func TestExecute_DelayCancelled(t *testing.T) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	life := NewLife(nil)
	plan := singleActionPlan(t, "slow", okHandler(nil))

	a := NewAction("slow", nil, plan).Permit()
	a.Metadata.Put(MetaDelay, time.Second)

	_, err := a.Execute(ctx, life)
	if !IsKind(err, KindCancellation) {
		t.Fatalf("expected cancellation error, got %v", err)
	}
}

func TestExecute_HookOrdering_FailureShortCircuits(t *testing.T) {
	ctx := context.Background()
	life := NewLife(nil)

	var ran []string
	life.Hook("a", func(ctx context.Context) error {
		ran = append(ran, "a")
		return nil
	})
	life.Hook("b", func(ctx context.Context) error {
		ran = append(ran, "b")
		return errors.New("hook b blew up")
	})
	life.Hook("c", func(ctx context.Context) error {
		ran = append(ran, "c")
		return nil
	})

	var handlerCalls int32
	plan := singleActionPlan(t, "hooked", func(ctx context.Context, arg any) (any, error) {
		atomic.AddInt32(&handlerCalls, 1)
		return nil, nil
	})

	a := NewAction("hooked", nil, plan).Permit()
	a.Metadata.Put(MetaHooks, []string{"a", "b", "c"})

	_, err := a.Execute(ctx, life)
	if !IsKind(err, KindExecution) {
		t.Fatalf("expected execution error from hook, got %v", err)
	}

	if len(ran) != 2 || ran[0] != "a" || ran[1] != "b" {
		t.Fatalf("expected hooks [a b] to run, got %v", ran)
	}
	if atomic.LoadInt32(&handlerCalls) != 0 {
		t.Fatalf("handler must not run after a hook failure")
	}
}

func TestExecute_UnknownHooksSkipped(t *testing.T) {
	ctx := context.Background()
	life := NewLife(nil)

	var ran []string
	life.Hook("known", func(ctx context.Context) error {
		ran = append(ran, "known")
		return nil
	})

	plan := singleActionPlan(t, "tolerant", okHandler("ok"))
	a := NewAction("tolerant", nil, plan).Permit()
	a.Metadata.Put(MetaHooks, []string{"nonexistent", "known"})

	out, err := a.Execute(ctx, life)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "ok" {
		t.Fatalf("unexpected result: %v", out)
	}
	if len(ran) != 1 || ran[0] != "known" {
		t.Fatalf("expected only the known hook to run, got %v", ran)
	}
}

func TestExecute_Continuation_ResultIsLast(t *testing.T) {
	ctx := context.Background()
	life := NewLife(nil)

	f := NewFormality()
	if err := f.Add(NewSignature("first"), okHandler("from-x")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := f.Add(NewSignature("second"), okHandler("from-y")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	plan := f.Build()

	y := NewAction("second", nil, plan).Permit()
	x := NewAction("first", nil, plan).Permit()
	x.Metadata.Put(MetaNext, y)

	out, err := x.Execute(ctx, life)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "from-y" {
		t.Fatalf("expected continuation result to win, got %v", out)
	}

	// Each action still keeps its own recorded result.
	if r, _ := x.Result(); r != "from-x" {
		t.Fatalf("expected x to record its own result, got %v", r)
	}
	if r, _ := y.Result(); r != "from-y" {
		t.Fatalf("expected y to record its result, got %v", r)
	}
}

func TestExecute_Continuation_ErrorPropagates(t *testing.T) {
	ctx := context.Background()
	life := NewLife(nil)

	f := NewFormality()
	if err := f.Add(NewSignature("first"), okHandler("x")); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	if err := f.Add(NewSignature("second"), func(ctx context.Context, arg any) (any, error) {
		return nil, errors.New("y failed")
	}); err != nil {
		t.Fatalf("Add failed: %v", err)
	}
	plan := f.Build()

	y := NewAction("second", nil, plan).Permit()
	x := NewAction("first", nil, plan).Permit()
	x.Metadata.Put(MetaNext, y)

	_, err := x.Execute(ctx, life)
	if !IsKind(err, KindExecution) {
		t.Fatalf("expected execution error from continuation, got %v", err)
	}
	if got := err.Error(); !strings.Contains(got, "y failed") {
		t.Fatalf("expected continuation error to propagate unchanged, got %q", got)
	}
}

func TestExecute_RetryEventuallySucceeds(t *testing.T) {
	ctx := context.Background()

	fate := DefaultFate()
	fate.Retry = RetryPolicy{MaxAttempts: 3, BackoffMultiplier: 2.0}
	life := NewLife(fate)

	var calls int32
	plan := singleActionPlan(t, "flaky", func(ctx context.Context, arg any) (any, error) {
		if atomic.AddInt32(&calls, 1) < 3 {
			return nil, errors.New("temporary failure")
		}
		return "ok-after-3", nil
	})

	a := NewAction("flaky", nil, plan).Permit()

	out, err := a.Execute(ctx, life)
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if out != "ok-after-3" {
		t.Fatalf("unexpected result: %v", out)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected 3 handler calls, got %d", got)
	}

	if v, _ := a.Metadata.Get(MetaAttempts); v != 3 {
		t.Fatalf("expected 3 recorded attempts, got %v", v)
	}
	if v, _ := life.Karma.Get("attempts:" + a.ID); v != 2 {
		t.Fatalf("expected 2 recorded failures in karma, got %v", v)
	}
}

func TestExecute_RetryExhausted(t *testing.T) {
	ctx := context.Background()

	fate := DefaultFate()
	fate.Retry = RetryPolicy{MaxAttempts: 3}
	life := NewLife(fate)

	var calls int32
	plan := singleActionPlan(t, "doomed", func(ctx context.Context, arg any) (any, error) {
		atomic.AddInt32(&calls, 1)
		return nil, errors.New("permanent failure")
	})

	a := NewAction("doomed", nil, plan).Permit()

	_, err := a.Execute(ctx, life)
	if !IsKind(err, KindExecution) {
		t.Fatalf("expected execution error, got %v", err)
	}
	if got := atomic.LoadInt32(&calls); got != 3 {
		t.Fatalf("expected exactly 3 attempts, got %d", got)
	}
	if a.Phase() != PhaseFailed {
		t.Fatalf("expected phase %q, got %q", PhaseFailed, a.Phase())
	}
}

func TestExecute_RetryBackoffWaits(t *testing.T) {
	ctx := context.Background()

	fate := DefaultFate()
	fate.Retry = RetryPolicy{
		MaxAttempts:       3,
		InitialBackoff:    20 * time.Millisecond,
		BackoffMultiplier: 2.0,
	}
	life := NewLife(fate)

	plan := singleActionPlan(t, "slow-fail", func(ctx context.Context, arg any) (any, error) {
		return nil, errors.New("nope")
	})

	a := NewAction("slow-fail", nil, plan).Permit()

	start := time.Now()
	_, err := a.Execute(ctx, life)
	if !IsKind(err, KindExecution) {
		t.Fatalf("expected execution error, got %v", err)
	}

	// Two waits: 20ms + 40ms.
	if elapsed := time.Since(start); elapsed < 60*time.Millisecond {
		t.Fatalf("expected backoff waits of at least 60ms, got %v", elapsed)
	}
}
