// Copyright 2016-present Oliver Eilhard. All rights reserved.
// Use of this source code is governed by a MIT-license.
// See http://olivere.mit-license.org/license.txt for details.

package actionqueue

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func receiveEvents(t *testing.T, events <-chan *WatchEvent, n int) []*WatchEvent {
	t.Helper()
	var got []*WatchEvent
	for len(got) < n {
		select {
		case ev, ok := <-events:
			if !ok {
				t.Fatalf("channel closed after %d events", len(got))
			}
			got = append(got, ev)
		case <-time.After(5 * time.Second):
			t.Fatalf("timeout after %d events", len(got))
		}
	}
	return got
}

func TestWatchStreamsTaskEvents(t *testing.T) {
	clock := newFakeClock()
	e := newTestExecutor(new(recorder), clock, SetWatchStatsInterval(0))

	done := make(chan struct{})
	defer close(done)
	events := e.Watch(done)

	action, m := newTestAction(0)
	action.Retries = 1
	m.On("Execute", testCtx).Return(errOverload).Once()
	m.On("Execute", testCtx).Return(nil).Once()
	require.NoError(t, e.Enqueue(action, nil))
	clock.Advance(610 * time.Millisecond)

	got := receiveEvents(t, events, 7)
	var types []string
	for _, ev := range got {
		types = append(types, ev.Type)
	}
	require.Equal(t, []string{
		TaskEnqueue,
		TaskStart,
		TaskRetry,
		TaskRetrying,
		TaskStart,
		TaskCompletion,
		QueueEmpty,
	}, types)

	retry := got[2]
	require.Equal(t, "TestAction0", retry.Task.Action)
	require.Equal(t, StatusQueuedForRetrying, retry.Task.Status)
	require.Equal(t, 1, retry.Task.Retry)
	require.Equal(t, 610*time.Millisecond, retry.Task.Backoff)
	require.Equal(t, errOverload.Error(), retry.Error)

	done2 := got[5]
	require.Equal(t, StatusDone, done2.Task.Status)
	require.Equal(t, 2, done2.Task.Attempts)
}

func TestWatchSendsStats(t *testing.T) {
	e := New(SetLogger(nil), SetWatchStatsInterval(time.Millisecond))
	require.NoError(t, e.Enqueue(&Action{
		Name:    "ok",
		Execute: func(actx interface{}, done Callback) { done(nil) },
	}, nil))

	done := make(chan struct{})
	defer close(done)
	events := e.Watch(done)

	timeout := time.After(5 * time.Second)
	for {
		select {
		case ev := <-events:
			if ev.Type != ManagerStats {
				continue
			}
			require.Equal(t, 1, ev.Stats.Enqueued)
			require.Equal(t, 1, ev.Stats.Completed)
			return
		case <-timeout:
			t.Fatal("timeout waiting for stats")
		}
	}
}

func TestWatchClosesChannelWhenDone(t *testing.T) {
	e := New(SetLogger(nil))
	done := make(chan struct{})
	events := e.Watch(done)
	close(done)

	timeout := time.After(5 * time.Second)
	for {
		select {
		case _, ok := <-events:
			if !ok {
				return
			}
		case <-timeout:
			t.Fatal("timeout waiting for channel to close")
		}
	}
}
