// Copyright 2016-present Oliver Eilhard. All rights reserved.
// Use of this source code is governed by a MIT-license.
// See http://olivere.mit-license.org/license.txt for details.

package actionqueue

// Status is the state of a task inside the executor. The zero value
// means the task has not been started yet.
type Status string

const (
	// StatusRunning is set whenever the action's Execute is invoked.
	StatusRunning Status = "running"
	// StatusNotReady is set when the action reported ErrNotReady. The task
	// is restarted by the next sweep of the queue.
	StatusNotReady Status = "not-ready"
	// StatusQueuedForRetrying is set when a transient failure is going to
	// be retried after a backoff delay.
	StatusQueuedForRetrying Status = "queued-for-retrying"
	// StatusRetrying is set when the backoff delay has elapsed. The task
	// is restarted by the next sweep of the queue.
	StatusRetrying Status = "retrying"
	// StatusDone is set after a successful outcome has been delivered.
	StatusDone Status = "done"
	// StatusFailed is set after a failure has been delivered.
	StatusFailed Status = "failed"
)

// Terminal returns true for StatusDone and StatusFailed.
func (s Status) Terminal() bool {
	return s == StatusDone || s == StatusFailed
}

// restartable returns true if the next sweep should execute the task again.
func (s Status) restartable() bool {
	return s == StatusNotReady || s == StatusRetrying
}
