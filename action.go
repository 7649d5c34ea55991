// Copyright 2016-present Oliver Eilhard. All rights reserved.
// Use of this source code is governed by a MIT-license.
// See http://olivere.mit-license.org/license.txt for details.

package actionqueue

// Action is a named unit of work run by the Executor.
type Action struct {
	// Name identifies the action. It must not be empty and should be
	// unique among the actions an application enqueues.
	Name string
	// Execute runs the action. It receives the context value configured
	// with SetContext and must eventually call done exactly once, either
	// before returning or later from any goroutine.
	Execute ExecuteFunc
	// Retries is the number of times a transient failure, as decided by
	// the predicate set with SetShouldRetryOnError, is retried with
	// backoff. Zero disables those retries. Actions that report
	// ErrNotReady are restarted regardless of Retries.
	Retries int
}

// ExecuteFunc runs an action and reports its outcome via done.
type ExecuteFunc func(actx interface{}, done Callback)

// Callback receives the outcome of an action: an error (nil on success)
// followed by any number of result values.
type Callback func(err error, values ...interface{})

// Result is the outcome reported by an action.
type Result struct {
	Err    error
	Values []interface{}
}

func (a *Action) String() string {
	if a == nil {
		return "<nil>"
	}
	return a.Name
}
