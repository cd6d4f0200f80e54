package acta_test

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jsiltala/acta"
)

func waitFor(t *testing.T, timeout time.Duration, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("condition not met within %v", timeout)
}

func TestEndToEnd_SingleWorkerRead(t *testing.T) {
	t.Parallel()

	f := acta.NewFormality()
	require.NoError(t, f.Add(acta.NewSignature("Read"), acta.ConstHandler("fixed string")))
	plan := f.Build()

	fate := acta.DefaultFate()
	fate.Workers = 1
	fate.PollInterval = 5 * time.Millisecond

	metrics := &acta.BasicMetrics{}
	seq := acta.NewSequence(acta.NewLife(fate), acta.WithObserver(metrics))

	action := acta.NewActionBuilder("Read", plan).Licensed().Build()
	seq.Assign(action)

	require.NoError(t, seq.Run(context.Background()))
	defer seq.Stop()

	waitFor(t, 5*time.Second, func() bool {
		return metrics.Snapshot().Completed == 1
	})

	result, ok := action.Result()
	require.True(t, ok)
	assert.Equal(t, "fixed string", result)

	snap := metrics.Snapshot()
	assert.EqualValues(t, 1, snap.Started)
	assert.EqualValues(t, 0, snap.Failed)
	assert.EqualValues(t, 0, snap.InFlight)
}

func TestEndToEnd_HooksAndLicense(t *testing.T) {
	t.Parallel()

	f := acta.NewFormality()
	require.NoError(t, f.Add(acta.NewSignature("audit-me"), acta.ConstHandler("done")))
	plan := f.Build()

	life := acta.NewLife(nil)
	var audited []string
	life.Hook("audit", func(ctx context.Context) error {
		audited = append(audited, "audit")
		return nil
	})

	action := acta.NewActionBuilder("audit-me", plan).
		Hooks("audit", "unknown-hook").
		Licensed().
		Build()

	out, err := acta.Execute(context.Background(), action, life)
	require.NoError(t, err)
	assert.Equal(t, "done", out)
	assert.Equal(t, []string{"audit"}, audited)

	// Revoking the license blocks a second action even with hooks set.
	blocked := acta.NewActionBuilder("audit-me", plan).Hooks("audit").Build()
	_, err = acta.Execute(context.Background(), blocked, life)
	require.Error(t, err)
	assert.True(t, acta.IsKind(err, acta.KindLicense))
	assert.Len(t, audited, 1, "hooks must not run for an unlicensed action")
}

func TestRetryBuilder_Policies(t *testing.T) {
	t.Parallel()

	p := acta.Retry(3).WithExponentialBackoff(100*time.Millisecond, 2.0, 2*time.Second).Policy()
	assert.Equal(t, 3, p.MaxAttempts)
	assert.Equal(t, 100*time.Millisecond, p.InitialBackoff)
	assert.Equal(t, 2.0, p.BackoffMultiplier)
	assert.Equal(t, 2*time.Second, p.MaxBackoff)

	p = acta.Retry(0).Policy()
	assert.Equal(t, 1, p.MaxAttempts, "non-positive attempts collapse to 1")

	p = acta.Retry(5).WithConstantBackoff(50 * time.Millisecond).Policy()
	assert.Equal(t, 1.0, p.BackoffMultiplier)
	assert.Equal(t, 50*time.Millisecond, p.InitialBackoff)

	p = acta.Retry(2).WithExponentialBackoff(time.Second, 2.0, 0).Immediate().Policy()
	assert.Zero(t, p.InitialBackoff)
	assert.Zero(t, p.MaxBackoff)
}

func TestFateRetry_DrivesExecution(t *testing.T) {
	t.Parallel()

	fate := acta.DefaultFate()
	fate.Retry = acta.Retry(4).Immediate().Policy()
	life := acta.NewLife(fate)

	var calls int
	f := acta.NewFormality()
	require.NoError(t, f.Add(acta.NewSignature("flaky"), func(ctx context.Context, arg any) (any, error) {
		calls++
		if calls < 4 {
			return nil, errors.New("not yet")
		}
		return "eventually", nil
	}))

	action := acta.NewActionBuilder("flaky", f.Build()).Licensed().Build()
	out, err := acta.Execute(context.Background(), action, life)
	require.NoError(t, err)
	assert.Equal(t, "eventually", out)
	assert.Equal(t, 4, calls)
}

func TestTraceSite_LogsDispatch(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	f := acta.NewFormality()
	require.NoError(t, f.Add(acta.NewSignature("traced"), acta.ConstHandler("ok")))
	plan := f.Build()

	life := acta.NewLife(nil)
	site := acta.NewTraceSite(nil, logger)

	action := acta.NewActionBuilder("traced", plan).Licensed().Build()
	require.NoError(t, site.Receive(context.Background(), action, life))

	out := buf.String()
	assert.Contains(t, out, "action_dispatched")
	assert.Contains(t, out, "traced")
	assert.Contains(t, out, action.ID)
}

func TestParseFate_ConfiguresSequence(t *testing.T) {
	t.Parallel()

	fate, err := acta.ParseFate([]byte(`
workers: 2
poll_interval: 5ms
retry:
  max_attempts: 2
`))
	require.NoError(t, err)

	f := acta.NewFormality()
	require.NoError(t, f.Add(acta.NewSignature("configured"), acta.ConstHandler(true)))
	plan := f.Build()

	metrics := &acta.BasicMetrics{}
	seq := acta.NewSequence(acta.NewLife(fate), acta.WithObserver(metrics))
	seq.Assign(acta.NewActionBuilder("configured", plan).Licensed().Build())

	require.NoError(t, seq.Run(context.Background()))
	defer seq.Stop()

	waitFor(t, 5*time.Second, func() bool {
		return metrics.Snapshot().Completed == 1
	})
}
