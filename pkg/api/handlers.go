package api

import (
	"context"
	"fmt"
	"time"
)

// ConstHandler returns a Handler that ignores its argument and returns v.
func ConstHandler(v any) Handler {
	return func(ctx context.Context, arg any) (any, error) {
		return v, nil
	}
}

// SleepHandler returns a Handler that waits for the given duration before
// passing its argument through unchanged.
//
// It is context-aware: if the context is cancelled during the sleep, it
// returns ctx.Err and the action fails at dispatch.
func SleepHandler(d time.Duration) Handler {
	return func(ctx context.Context, arg any) (any, error) {
		if d <= 0 {
			return arg, nil
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(d):
			return arg, nil
		}
	}
}

// TypedHandler wraps a strongly-typed function into a Handler.
// Example:
//
//	api.TypedHandler(func(ctx context.Context, in Order) (Receipt, error) { ... })
//
// A content value of the wrong dynamic type fails the dispatch.
func TypedHandler[I, O any](fn func(context.Context, I) (O, error)) Handler {
	return func(ctx context.Context, arg any) (any, error) {
		in, ok := arg.(I)
		if !ok {
			var want I
			return nil, fmt.Errorf("content is %T, want %T", arg, want)
		}
		return fn(ctx, in)
	}
}
