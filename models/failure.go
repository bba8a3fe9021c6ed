package models

import (
	"errors"
	"fmt"
)

// Reason says why a backend call failed.
type Reason string

const (
	ReasonNetwork         Reason = "network"
	ReasonNotFound        Reason = "not_found"
	ReasonPermission      Reason = "permission"
	ReasonValidation      Reason = "validation"
	ReasonConflict        Reason = "conflict"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonInternal        Reason = "internal"
)

// Failure is the error type returned across every repository boundary.
type Failure struct {
	Op     string
	Reason Reason
	Err    error
}

func (f *Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s", f.Op, f.Reason)
	}
	return fmt.Sprintf("%s: %s: %v", f.Op, f.Reason, f.Err)
}

func (f *Failure) Unwrap() error {
	return f.Err
}

// Is lets errors.Is match on reason alone: errors.Is(err, &Failure{Reason: ReasonNotFound}).
func (f *Failure) Is(target error) bool {
	t, ok := target.(*Failure)
	if !ok {
		return false
	}
	return t.Op == "" && t.Err == nil && t.Reason == f.Reason
}

// Fail builds a Failure. Passing an existing Failure keeps its reason.
func Fail(op string, reason Reason, err error) error {
	var f *Failure
	if errors.As(err, &f) {
		return &Failure{Op: op, Reason: f.Reason, Err: err}
	}
	return &Failure{Op: op, Reason: reason, Err: err}
}

// ReasonOf extracts the reason from err; errors that are not Failures are internal.
func ReasonOf(err error) Reason {
	if err == nil {
		return ""
	}
	var f *Failure
	if errors.As(err, &f) {
		return f.Reason
	}
	return ReasonInternal
}

// Message is the user-facing text for err.
func Message(err error) string {
	switch ReasonOf(err) {
	case ReasonNetwork:
		return "Network error, please try again"
	case ReasonNotFound:
		return "Not found"
	case ReasonPermission:
		return "You do not have permission to do that"
	case ReasonConflict:
		return "Already exists"
	case ReasonUnauthenticated:
		return "Invalid email or password"
	case ReasonValidation:
		if f := innermost(err); f != nil && f.Err != nil {
			return f.Err.Error()
		}
		return "Invalid input"
	default:
		return "Something went wrong"
	}
}

// innermost returns the deepest Failure in err's chain, so layered operations
// still surface the original validation text.
func innermost(err error) *Failure {
	var f *Failure
	if !errors.As(err, &f) {
		return nil
	}
	for {
		var inner *Failure
		if f.Err == nil || !errors.As(f.Err, &inner) {
			return f
		}
		f = inner
	}
}
