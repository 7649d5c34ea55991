// Copyright 2016-present Oliver Eilhard. All rights reserved.
// Use of this source code is governed by a MIT-license.
// See http://olivere.mit-license.org/license.txt for details.

package actionqueue

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestKindOf(t *testing.T) {
	tests := []struct {
		Err  error
		Want ErrorKind
	}{
		{nil, KindNone},
		{ErrNotReady, KindNotReady},
		{fmt.Errorf("locked: %w", ErrNotReady), KindNotReady},
		{ErrCancelled, KindCancelled},
		{&StatusError{Status: 503}, KindStatus},
		{fmt.Errorf("request: %w", &StatusError{Status: 500}), KindStatus},
		{&StatusError{Status: 500, Err: ErrCancelled}, KindCancelled},
		{errors.New("boom"), KindOther},
	}
	for i, tt := range tests {
		if want, got := tt.Want, KindOf(tt.Err); want != got {
			t.Errorf("#%d: want %v, got %v", i, want, got)
		}
	}
}

func TestStatusError(t *testing.T) {
	require.Equal(t, "status 503: Service Unavailable", (&StatusError{Status: 503}).Error())
	require.Equal(t, "status 599", (&StatusError{Status: 599}).Error())

	inner := errors.New("connection reset")
	err := &StatusError{Status: 500, Err: inner}
	require.Equal(t, "status 500: connection reset", err.Error())
	require.ErrorIs(t, err, inner)
}

func TestRetryOnStatus(t *testing.T) {
	retry := RetryOnStatus(500, 503)
	require.True(t, retry(&StatusError{Status: 500}))
	require.True(t, retry(fmt.Errorf("wrapped: %w", &StatusError{Status: 503})))
	require.False(t, retry(&StatusError{Status: 404}))
	require.False(t, retry(errors.New("boom")))
	require.False(t, retry(nil))
	require.False(t, RetryOnStatus()(&StatusError{Status: 500}))
}

func TestTagErrors(t *testing.T) {
	action := &Action{Name: "reindex"}

	var got Result
	TagErrors(action, Result{Values: []interface{}{1}}, func(res Result) { got = res })
	require.NoError(t, got.Err)
	require.Equal(t, []interface{}{1}, got.Values)

	TagErrors(action, Result{Err: ErrCancelled}, func(res Result) { got = res })
	var ae *ActionError
	require.ErrorAs(t, got.Err, &ae)
	require.Equal(t, "reindex", ae.Action)
	require.True(t, ae.Cancelled)
	require.Equal(t, `action "reindex" cancelled: actionqueue: action cancelled`, got.Err.Error())

	// Already tagged errors stay as they are.
	tagged := got.Err
	TagErrors(action, got, func(res Result) { got = res })
	require.Same(t, tagged, got.Err)

	TagErrors(action, Result{Err: &StatusError{Status: 500}}, func(res Result) { got = res })
	require.ErrorAs(t, got.Err, &ae)
	require.False(t, ae.Cancelled)
	require.Equal(t, `action "reindex": status 500: Internal Server Error`, got.Err.Error())
}

func TestChainInterceptors(t *testing.T) {
	var trace []string
	step := func(name string) Interceptor {
		return func(action *Action, res Result, next func(Result)) {
			trace = append(trace, name)
			res.Values = append(res.Values, name)
			next(res)
		}
	}
	chain := ChainInterceptors(step("a"), nil, step("b"), TagErrors)

	var got Result
	chain(&Action{Name: "x"}, Result{Err: errors.New("boom")}, func(res Result) {
		trace = append(trace, "next")
		got = res
	})
	require.Equal(t, []string{"a", "b", "next"}, trace)
	require.Equal(t, []interface{}{"a", "b"}, got.Values)
	var ae *ActionError
	require.ErrorAs(t, got.Err, &ae)

	var called bool
	ChainInterceptors()(&Action{Name: "x"}, Result{}, func(Result) { called = true })
	require.True(t, called)
}

func TestClosedError(t *testing.T) {
	require.Equal(t, ErrClosed, closedError(nil))

	err := closedError(&StatusError{Status: 503})
	require.ErrorIs(t, err, ErrClosed)
	var se *StatusError
	require.ErrorAs(t, err, &se)
	require.Equal(t, 503, se.Status)
	require.Equal(t, "actionqueue: executor closed: status 503: Service Unavailable", err.Error())
}
