// Copyright 2016-present Oliver Eilhard. All rights reserved.
// Use of this source code is governed by a MIT-license.
// See http://olivere.mit-license.org/license.txt for details.

// Package metrics exports the activity of an actionqueue.Executor
// as Prometheus metrics.
//
// Example:
//
//	c := metrics.NewCollector(prometheus.DefaultRegisterer)
//	e := actionqueue.New(
//	    actionqueue.SetOnStatusChange(c.StatusChanged),
//	    actionqueue.SetOnEmptyQueue(c.QueueEmptied))
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/olivere/actionqueue"
)

// Collector counts status changes of tasks.
type Collector struct {
	// Transitions tracks status changes per action and new status
	Transitions *prometheus.CounterVec

	// Finished tracks tasks that reached a terminal status
	Finished *prometheus.CounterVec

	// Attempts tracks how often finished tasks have been executed
	Attempts *prometheus.HistogramVec

	// Backoff tracks the delays of scheduled retries
	Backoff *prometheus.HistogramVec

	// QueueEmpty tracks how often the queue has been drained
	QueueEmpty prometheus.Counter
}

// NewCollector creates the metrics and registers them with reg.
// Pass nil to create unregistered metrics.
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)
	return &Collector{
		Transitions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "actionqueue_status_changes_total",
				Help: "Total number of task status changes",
			},
			[]string{"action", "status"},
		),
		Finished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "actionqueue_tasks_finished_total",
				Help: "Total number of tasks that are done or failed",
			},
			[]string{"action", "status"},
		),
		Attempts: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "actionqueue_task_attempts",
				Help:    "Number of executions of finished tasks",
				Buckets: prometheus.LinearBuckets(1, 1, 10),
			},
			[]string{"action"},
		),
		Backoff: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "actionqueue_retry_backoff_seconds",
				Help:    "Backoff delay of retries in seconds",
				Buckets: prometheus.ExponentialBuckets(0.5, 2, 8),
			},
			[]string{"action"},
		),
		QueueEmpty: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "actionqueue_queue_empty_total",
				Help: "Total number of times the queue has been drained",
			},
		),
	}
}

// StatusChanged records a status change. It can be passed to
// actionqueue.SetOnStatusChange directly.
func (c *Collector) StatusChanged(task *actionqueue.Task, status actionqueue.Status, err error) {
	name := task.Action.Name
	c.Transitions.WithLabelValues(name, string(status)).Inc()
	switch {
	case status == actionqueue.StatusQueuedForRetrying:
		c.Backoff.WithLabelValues(name).Observe(task.Backoff().Seconds())
	case status.Terminal():
		c.Finished.WithLabelValues(name, string(status)).Inc()
		c.Attempts.WithLabelValues(name).Observe(float64(task.Attempts()))
	}
}

// QueueEmptied records that the queue has been drained. It can be
// passed to actionqueue.SetOnEmptyQueue directly.
func (c *Collector) QueueEmptied() {
	c.QueueEmpty.Inc()
}

// Chain returns a func that calls fn after recording the status change,
// for applications that have their own status change hook.
func (c *Collector) Chain(fn actionqueue.StatusChangeFunc) actionqueue.StatusChangeFunc {
	if fn == nil {
		return c.StatusChanged
	}
	return func(task *actionqueue.Task, status actionqueue.Status, err error) {
		c.StatusChanged(task, status, err)
		fn(task, status, err)
	}
}
