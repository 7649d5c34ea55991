// Copyright 2016-present Oliver Eilhard. All rights reserved.
// Use of this source code is governed by a MIT-license.
// See http://olivere.mit-license.org/license.txt for details.

package actionqueue

import (
	"testing"
	"time"
)

func TestInMemoryStoreNew(t *testing.T) {
	st := NewInMemoryStore()
	if want, got := 0, len(st.metrics); want != got {
		t.Errorf("want %d, got %d", want, got)
	}
	if want, got := 0, len(st.subs); want != got {
		t.Errorf("want %d, got %d", want, got)
	}
}

func TestInMemoryStoreStats(t *testing.T) {
	st := NewInMemoryStore()
	fields := []StatsField{EnqueuedField, StartedField, StartedField, NotReadyField, RetriedField, FailedField, CompletedField}
	for _, f := range fields {
		if err := st.StatsIncrement(f, 1); err != nil {
			t.Fatal(err)
		}
	}
	stats, err := st.StatsSnapshot()
	if err != nil {
		t.Fatal(err)
	}
	want := Stats{Enqueued: 1, Started: 2, NotReady: 1, Retried: 1, Failed: 1, Completed: 1}
	if got := *stats; want != got {
		t.Errorf("want %+v, got %+v", want, got)
	}
}

func TestInMemoryStorePublishSubscribe(t *testing.T) {
	st := NewInMemoryStore()
	done := make(chan struct{})
	events := st.Subscribe(done)

	if err := st.Publish(&WatchEvent{Type: TaskEnqueue}); err != nil {
		t.Fatal(err)
	}
	select {
	case ev := <-events:
		if want, got := TaskEnqueue, ev.Type; want != got {
			t.Errorf("want %q, got %q", want, got)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("timeout waiting for event")
	}

	close(done)
	for range events {
		// Drain until closed
	}
	st.mu.Lock()
	n := len(st.subs)
	st.mu.Unlock()
	if want, got := 0, n; want != got {
		t.Errorf("want %d, got %d", want, got)
	}
	if err := st.Publish(&WatchEvent{Type: TaskStart}); err != nil {
		t.Fatal(err)
	}
}

func TestInMemoryStoreDropsEventsForSlowSubscribers(t *testing.T) {
	st := NewInMemoryStore()
	st.buffer = 2
	done := make(chan struct{})
	defer close(done)
	events := st.Subscribe(done)

	for i := 0; i < 5; i++ {
		if err := st.Publish(&WatchEvent{Type: TaskStart}); err != nil {
			t.Fatal(err)
		}
	}
	if want, got := 2, len(events); want != got {
		t.Errorf("want %d, got %d", want, got)
	}
	if want, got := 3, st.Dropped(); want != got {
		t.Errorf("want %d, got %d", want, got)
	}
}
