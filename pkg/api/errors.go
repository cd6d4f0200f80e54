package api

import (
	"errors"
	"fmt"
)

// Kind classifies every failure an action can produce.
type Kind string

const (
	// KindLicense means the action's license flag denied execution.
	KindLicense Kind = "license"

	// KindExecution means the handler (or a hook) returned a failure.
	KindExecution Kind = "execution"

	// KindRouting means a named action, handler, or hook could not be
	// resolved.
	KindRouting Kind = "routing"

	// KindCancellation means execution was aborted externally, for
	// example by shutdown or a context deadline.
	KindCancellation Kind = "cancellation"
)

// Error is the typed failure produced by the action pipeline. Every
// pipeline stage yields at most one Error, which aborts the remainder of
// that action's pipeline.
type Error struct {
	Kind Kind

	// Op names the failing stage or the action involved, e.g. "resolve"
	// or "dispatch greet".
	Op string

	// Err is the underlying cause, if any.
	Err error
}

func (e *Error) Error() string {
	switch {
	case e.Err == nil:
		return fmt.Sprintf("%s: %s", e.Kind, e.Op)
	case e.Op == "":
		return fmt.Sprintf("%s: %v", e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Op, e.Err)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Errf constructs an Error with a formatted cause.
func Errf(kind Kind, op string, format string, args ...any) *Error {
	return &Error{Kind: kind, Op: op, Err: fmt.Errorf(format, args...)}
}

// WrapErr wraps err as an Error of the given kind. A nil err yields an
// Error with no cause.
func WrapErr(kind Kind, op string, err error) *Error {
	return &Error{Kind: kind, Op: op, Err: err}
}

// KindOf returns the Kind carried by err, or "" if err is not (and does
// not wrap) an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given Kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}
