// Copyright 2016-present Oliver Eilhard. All rights reserved.
// Use of this source code is governed by a MIT-license.
// See http://olivere.mit-license.org/license.txt for details.

package actionqueue

import "errors"

// Interceptor is invoked before the outcome of an action takes effect:
// before the callback passed to Enqueue receives a final result, and before
// a transient failure is queued for retrying. It must call next exactly
// once, synchronously or later from any goroutine. The result passed to
// next is the one the executor continues with, so interceptors may
// annotate the error.
type Interceptor func(action *Action, res Result, next func(Result))

var _ Interceptor = TagErrors

// TagErrors is an Interceptor that wraps every error into an *ActionError
// naming the action that reported it. Errors matching ErrCancelled are
// marked as cancelled.
func TagErrors(action *Action, res Result, next func(Result)) {
	if res.Err != nil {
		var ae *ActionError
		if !errors.As(res.Err, &ae) || ae.Action != action.Name {
			res.Err = &ActionError{
				Action:    action.Name,
				Cancelled: KindOf(res.Err) == KindCancelled,
				Err:       res.Err,
			}
		}
	}
	next(res)
}

// ChainInterceptors combines interceptors into one. They run in the given
// order, each one's next invoking the following interceptor.
func ChainInterceptors(interceptors ...Interceptor) Interceptor {
	return func(action *Action, res Result, next func(Result)) {
		var step func(i int, res Result)
		step = func(i int, res Result) {
			for i < len(interceptors) && interceptors[i] == nil {
				i++
			}
			if i == len(interceptors) {
				next(res)
				return
			}
			interceptors[i](action, res, func(res Result) {
				step(i+1, res)
			})
		}
		step(0, res)
	}
}
