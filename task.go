// Copyright 2016-present Oliver Eilhard. All rights reserved.
// Use of this source code is governed by a MIT-license.
// See http://olivere.mit-license.org/license.txt for details.

package actionqueue

import (
	"sync"
	"time"

	"github.com/satori/go.uuid"
)

// Task is the executor's record of one enqueued action. Tasks are created
// by Enqueue and passed to the status change hook; applications only read
// them.
type Task struct {
	// ID uniquely identifies the task, even if the same action is
	// enqueued more than once.
	ID string
	// Action is the enqueued action.
	Action *Action
	// Enqueued is the time the task has been enqueued.
	Enqueued time.Time

	callback    Callback
	timer       Timer  // armed backoff timer, if any
	restartedBy uint64 // sweep that restarted the task last
	lastErr     error  // error that queued the task for retrying

	mu          sync.RWMutex
	status      Status
	retriesLeft int
	attempts    int
	backoff     time.Duration
}

func newTask(action *Action, cb Callback, now time.Time) *Task {
	return &Task{
		ID:          uuid.NewV4().String(),
		Action:      action,
		Enqueued:    now,
		callback:    cb,
		retriesLeft: action.Retries,
	}
}

// Status returns the current status of the task.
func (t *Task) Status() Status {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.status
}

// RetriesLeft returns the number of transient-failure retries the task
// still has.
func (t *Task) RetriesLeft() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.retriesLeft
}

// Attempts returns how many times the action has been executed.
func (t *Task) Attempts() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.attempts
}

// Backoff returns the delay of the most recently scheduled retry.
func (t *Task) Backoff() time.Duration {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.backoff
}

func (t *Task) setStatus(status Status) {
	t.mu.Lock()
	t.status = status
	if status == StatusRunning {
		t.attempts++
	}
	t.mu.Unlock()
}

// useRetry consumes one retry and returns its 1-based index.
func (t *Task) useRetry() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.retriesLeft--
	return t.Action.Retries - t.retriesLeft
}

func (t *Task) setBackoff(d time.Duration) {
	t.mu.Lock()
	t.backoff = d
	t.mu.Unlock()
}

// Spec returns a snapshot of the task, e.g. to be sent to watchers.
func (t *Task) Spec() *TaskSpec {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return &TaskSpec{
		ID:         t.ID,
		Action:     t.Action.Name,
		Status:     t.status,
		Attempts:   t.attempts,
		Retry:      t.Action.Retries - t.retriesLeft,
		NumRetries: t.Action.Retries,
		Backoff:    t.backoff,
		Enqueued:   t.Enqueued.UnixNano(),
	}
}

// TaskSpec is a serializable snapshot of a Task.
type TaskSpec struct {
	ID         string        `json:"id"`
	Action     string        `json:"action"`
	Status     Status        `json:"status,omitempty"`
	Attempts   int           `json:"attempts"`          // number of executions
	Retry      int           `json:"retry"`             // current retry
	NumRetries int           `json:"num_retries"`       // max. number of retries
	Backoff    time.Duration `json:"backoff,omitempty"` // last backoff delay
	Enqueued   int64         `json:"enqueued"`          // time the task has been enqueued
}
