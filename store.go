// Copyright 2016-present Oliver Eilhard. All rights reserved.
// Use of this source code is governed by a MIT-license.
// See http://olivere.mit-license.org/license.txt for details.

package actionqueue

// Store keeps the statistics of an executor and distributes its events
// to watchers. Queue state itself is never stored.
type Store interface {
	// Stats returns a snapshot of the currently stored statistics.
	StatsSnapshot() (*Stats, error)

	// StatsIncrement increments a given statistic.
	StatsIncrement(field StatsField, delta int) error

	// Publish publishes an event. It must not block.
	Publish(payload *WatchEvent) error

	// Subscribe returns a channel of published events. The channel is
	// closed after done is closed.
	Subscribe(done <-chan struct{}) <-chan *WatchEvent
}

// StatsField represents a metrics.
type StatsField string

const (
	EnqueuedField  StatsField = "enqueued"
	StartedField   StatsField = "started"
	NotReadyField  StatsField = "not_ready"
	RetriedField   StatsField = "retried"
	FailedField    StatsField = "failed"
	CompletedField StatsField = "completed"
)

// statsFieldFor returns the statistic to increment when a task enters
// the given status.
func statsFieldFor(status Status) (StatsField, bool) {
	switch status {
	case StatusRunning:
		return StartedField, true
	case StatusNotReady:
		return NotReadyField, true
	case StatusQueuedForRetrying:
		return RetriedField, true
	case StatusFailed:
		return FailedField, true
	case StatusDone:
		return CompletedField, true
	}
	return "", false
}

// Stats represents statistics.
type Stats struct {
	Enqueued  int `json:"enqueued"`   // passed to Enqueue
	Started   int `json:"started"`    // executions, including restarts
	NotReady  int `json:"not_ready"`  // reported not ready
	Retried   int `json:"retried"`    // failed but queued for retrying
	Failed    int `json:"failed"`     // finally failed
	Completed int `json:"completed"`  // completed successfully
	QueueSize int `json:"queue_size"` // tasks currently in the queue
}
