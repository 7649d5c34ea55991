// Copyright 2016-present Oliver Eilhard. All rights reserved.
// Use of this source code is governed by a MIT-license.
// See http://olivere.mit-license.org/license.txt for details.

package actionqueue

import (
	"sync"
	"time"
)

const (
	// ManagerStats event type returns global stats periodically.
	ManagerStats = "MANAGER_STATS"
	// ManagerClose event type is triggered when the executor is closed.
	ManagerClose = "MANAGER_CLOSE"
	// QueueEmpty event type is triggered when a sweep finds no pending task.
	QueueEmpty = "QUEUE_EMPTY"
	// TaskEnqueue event type is triggered when a new task is enqueued.
	TaskEnqueue = "TASK_ENQUEUE"
	// TaskStart event type is triggered when a task is (re)started.
	TaskStart = "TASK_START"
	// TaskNotReady event type is triggered when a task reported not ready.
	TaskNotReady = "TASK_NOT_READY"
	// TaskRetry event type is triggered when a task is queued for retrying.
	TaskRetry = "TASK_RETRY"
	// TaskRetrying event type is triggered when a task's backoff elapsed.
	TaskRetrying = "TASK_RETRYING"
	// TaskCompletion event type is triggered when a task completed successfully.
	TaskCompletion = "TASK_COMPLETION"
	// TaskFailure event type is triggered when a task has failed.
	TaskFailure = "TASK_FAILURE"
)

// WatchEvent is send to consumers watching the executor after
// calling Watch on the executor.
type WatchEvent struct {
	Type  string    `json:"type"`            // event type
	Task  *TaskSpec `json:"task,omitempty"`  // task details
	Error string    `json:"error,omitempty"` // error reported by the action
	Stats *Stats    `json:"stats,omitempty"` // statistics
}

func eventTypeFor(status Status) string {
	switch status {
	case StatusRunning:
		return TaskStart
	case StatusNotReady:
		return TaskNotReady
	case StatusQueuedForRetrying:
		return TaskRetry
	case StatusRetrying:
		return TaskRetrying
	case StatusDone:
		return TaskCompletion
	case StatusFailed:
		return TaskFailure
	}
	return ""
}

// Watch enables consumers to watch events happening inside an executor.
// Watch returns a channel of WatchEvents that it will send on.
// The caller must pass a done channel that it needs to close if it is
// no longer interested in watching events. Events are dropped for
// watchers that do not keep up.
func (e *Executor) Watch(done <-chan struct{}) <-chan *WatchEvent {
	// We initialize two channels here: One for the events from the
	// store (events), and one for the ManagerStats events (statsev).
	// Finally, we merge both channels together so that they appear as
	// one simple channel.
	events := e.st.Subscribe(done)
	if e.statsInterval <= 0 {
		return mergeWatchEvents(done, events)
	}

	statsev := make(chan *WatchEvent)
	go func() {
		defer close(statsev)
		t := time.NewTicker(e.statsInterval)
		defer t.Stop()

		for {
			select {
			case <-done:
				// Stop watching
				return
			case <-t.C:
				st, err := e.Stats()
				if err != nil {
					// No stats
					break
				}
				select {
				case statsev <- &WatchEvent{Type: ManagerStats, Stats: st}:
				case <-done:
					return
				}
			}
		}
	}()

	// merge both channels, and stop if done receives a value
	return mergeWatchEvents(done, events, statsev)
}

// mergeWatchEvents merges one or more input channels of WatchEvents together
// and returns them as a single channel.
// See https://blog.golang.org/pipelines for details on the implementation.
func mergeWatchEvents(done <-chan struct{}, cs ...<-chan *WatchEvent) <-chan *WatchEvent {
	var wg sync.WaitGroup
	out := make(chan *WatchEvent)

	// Start an output goroutine for each input channel in cs.
	// output copies values from c to out until c is closed or it
	// receives a value from done, then output calls wg.Done.
	output := func(c <-chan *WatchEvent) {
		for n := range c {
			select {
			case out <- n:
			case <-done:
			}
		}
		wg.Done()
	}
	wg.Add(len(cs))
	for _, c := range cs {
		go output(c)
	}

	// Start a goroutine to close out once all the output goroutines are done.
	// This must start after the wg.Add call.
	go func() {
		wg.Wait()
		close(out)
	}()
	return out
}
