// Copyright 2016-present Oliver Eilhard. All rights reserved.
// Use of this source code is governed by a MIT-license.
// See http://olivere.mit-license.org/license.txt for details.

package actionqueue

import "sync"

const defaultSubscriberBuffer = 256

// InMemoryStore is the default Store of an Executor.
type InMemoryStore struct {
	mu      sync.Mutex
	metrics map[StatsField]int
	subs    map[chan *WatchEvent]struct{}
	buffer  int
	dropped int
}

func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		metrics: make(map[StatsField]int),
		subs:    make(map[chan *WatchEvent]struct{}),
		buffer:  defaultSubscriberBuffer,
	}
}

func (r *InMemoryStore) StatsSnapshot() (*Stats, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	st := new(Stats)
	for key, value := range r.metrics {
		switch key {
		case EnqueuedField:
			st.Enqueued = value
		case StartedField:
			st.Started = value
		case NotReadyField:
			st.NotReady = value
		case RetriedField:
			st.Retried = value
		case FailedField:
			st.Failed = value
		case CompletedField:
			st.Completed = value
		}
	}
	return st, nil
}

func (r *InMemoryStore) StatsIncrement(f StatsField, delta int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.metrics[f] += delta
	return nil
}

// Publish sends e to all subscribers. Subscribers that are not keeping up
// miss the event.
func (r *InMemoryStore) Publish(e *WatchEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for c := range r.subs {
		select {
		case c <- e:
		default:
			r.dropped++
		}
	}
	return nil
}

func (r *InMemoryStore) Subscribe(done <-chan struct{}) <-chan *WatchEvent {
	c := make(chan *WatchEvent, r.buffer)
	r.mu.Lock()
	r.subs[c] = struct{}{}
	r.mu.Unlock()
	go func() {
		<-done
		r.mu.Lock()
		delete(r.subs, c)
		close(c)
		r.mu.Unlock()
	}()
	return c
}

// Dropped returns the number of events subscribers have missed.
func (r *InMemoryStore) Dropped() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.dropped
}
