// Copyright 2016-present Oliver Eilhard. All rights reserved.
// Use of this source code is governed by a MIT-license.
// See http://olivere.mit-license.org/license.txt for details.

package actionqueue

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNotReady is reported by an action that could not run yet, e.g.
	// because it failed to get a lock on all the objects it works with.
	// The executor restarts such actions without delay and without using
	// up their retries. Executing the action again must always be safe.
	ErrNotReady = errors.New("actionqueue: action not ready")

	// ErrCancelled is reported by an action that was cancelled. The
	// executor treats it as an ordinary failure.
	ErrCancelled = errors.New("actionqueue: action cancelled")

	// ErrClosed is returned by Enqueue after the executor has been closed.
	ErrClosed = errors.New("actionqueue: executor closed")
)

// ErrorKind discriminates the outcomes an action can report.
type ErrorKind int

const (
	// KindNone is the kind of a nil error, i.e. success.
	KindNone ErrorKind = iota
	// KindNotReady marks errors matching ErrNotReady.
	KindNotReady
	// KindCancelled marks errors matching ErrCancelled.
	KindCancelled
	// KindStatus marks errors carrying a *StatusError.
	KindStatus
	// KindOther is any other error.
	KindOther
)

func (k ErrorKind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindNotReady:
		return "not-ready"
	case KindCancelled:
		return "cancelled"
	case KindStatus:
		return "status"
	default:
		return "other"
	}
}

// KindOf classifies err. Wrapped errors are unwrapped, so an action may
// annotate ErrNotReady or ErrCancelled with fmt.Errorf and %w.
func KindOf(err error) ErrorKind {
	if err == nil {
		return KindNone
	}
	if errors.Is(err, ErrNotReady) {
		return KindNotReady
	}
	if errors.Is(err, ErrCancelled) {
		return KindCancelled
	}
	var se *StatusError
	if errors.As(err, &se) {
		return KindStatus
	}
	return KindOther
}

// ValidationError is returned by Enqueue for a malformed action.
type ValidationError struct {
	// Field is the offending part of the action: "action", "name",
	// "execute", or "retries".
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return e.Reason
}

// closedError is delivered to tasks whose retry was cancelled by Close.
func closedError(err error) error {
	if err == nil {
		return ErrClosed
	}
	return fmt.Errorf("%w: %w", ErrClosed, err)
}

func validateAction(action *Action) error {
	if action == nil {
		return &ValidationError{Field: "action", Reason: "expect actions to be objects"}
	}
	if action.Name == "" {
		return &ValidationError{Field: "name", Reason: "expect actions to have an unique name"}
	}
	if action.Execute == nil {
		return &ValidationError{
			Field:  "execute",
			Reason: fmt.Sprintf("expect actions to have an execute method: %q", action.Name),
		}
	}
	if action.Retries < 0 {
		return &ValidationError{
			Field:  "retries",
			Reason: fmt.Sprintf("expect actions to have a non-negative number of retries: %q", action.Name),
		}
	}
	return nil
}

// StatusError is a failure carrying a status code, typically the HTTP
// status of a failed request. Use RetryOnStatus to retry on some codes.
type StatusError struct {
	Status int
	Err    error
}

func (e *StatusError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("status %d: %v", e.Status, e.Err)
	}
	if text := http.StatusText(e.Status); text != "" {
		return fmt.Sprintf("status %d: %s", e.Status, text)
	}
	return fmt.Sprintf("status %d", e.Status)
}

func (e *StatusError) Unwrap() error {
	return e.Err
}

// RetryOnStatus returns a predicate for SetShouldRetryOnError that accepts
// errors wrapping a *StatusError with one of the given codes.
//
// Example:
//
//	e := actionqueue.New(actionqueue.SetShouldRetryOnError(
//	    actionqueue.RetryOnStatus(http.StatusInternalServerError, http.StatusServiceUnavailable)))
func RetryOnStatus(codes ...int) func(error) bool {
	set := make(map[int]struct{}, len(codes))
	for _, code := range codes {
		set[code] = struct{}{}
	}
	return func(err error) bool {
		var se *StatusError
		if !errors.As(err, &se) {
			return false
		}
		_, found := set[se.Status]
		return found
	}
}

// ActionError annotates a failure with the action that produced it.
// See TagErrors.
type ActionError struct {
	Action    string
	Cancelled bool
	Err       error
}

func (e *ActionError) Error() string {
	if e.Cancelled {
		return fmt.Sprintf("action %q cancelled: %v", e.Action, e.Err)
	}
	return fmt.Sprintf("action %q: %v", e.Action, e.Err)
}

func (e *ActionError) Unwrap() error {
	return e.Err
}
