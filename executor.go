// Copyright 2016-present Oliver Eilhard. All rights reserved.
// Use of this source code is governed by a MIT-license.
// See http://olivere.mit-license.org/license.txt for details.

package actionqueue

import (
	"sync"
	"time"
)

const (
	defaultWatchStatsInterval = 1 * time.Second
)

func nop() {}

var (
	testSweepStarted = nop // testing hook
)

// StatusChangeFunc is called on every status change of a task. err is the
// error reported by the action for StatusQueuedForRetrying and
// StatusFailed, and nil otherwise.
type StatusChangeFunc func(task *Task, status Status, err error)

// Executor runs actions and keeps restarting them until they reach a
// terminal outcome.
type Executor struct {
	actx           interface{}
	onEmptyQueue   func()
	onStatusChange StatusChangeFunc
	shouldRetry    func(error) bool
	interceptor    Interceptor
	backoff        BackoffFunc
	clock          Clock
	logger         Logger
	st             Store
	statsInterval  time.Duration

	mu           sync.Mutex
	queue        []*Task
	jobs         []func()
	draining     bool
	sweepPending bool
	sweepTimer   Timer
	sweepReq     uint64
	closed       bool
	sweeps       uint64 // touched in turns only
}

// New creates a new executor.
//
// Configure the executor with Set methods.
// Example:
//
//	e := actionqueue.New(
//	    actionqueue.SetContext(db),
//	    actionqueue.SetShouldRetryOnError(actionqueue.RetryOnStatus(503)))
func New(options ...ExecutorOption) *Executor {
	e := &Executor{
		backoff:       defaultBackoff,
		clock:         wallClock{},
		logger:        stdLogger{},
		st:            NewInMemoryStore(),
		statsInterval: defaultWatchStatsInterval,
	}
	for _, opt := range options {
		opt(e)
	}
	return e
}

// ExecutorOption is an options provider to be used when creating a
// new executor.
type ExecutorOption func(*Executor)

// SetContext specifies the value passed to the Execute func of every
// action.
func SetContext(actx interface{}) ExecutorOption {
	return func(e *Executor) {
		e.actx = actx
	}
}

// SetOnEmptyQueue specifies a func that is called whenever the executor
// finds that there are no more tasks to wait for.
func SetOnEmptyQueue(fn func()) ExecutorOption {
	return func(e *Executor) {
		e.onEmptyQueue = fn
	}
}

// SetOnStatusChange specifies a func that is called on every status change
// of a task.
func SetOnStatusChange(fn StatusChangeFunc) ExecutorOption {
	return func(e *Executor) {
		e.onStatusChange = fn
	}
}

// SetShouldRetryOnError specifies the predicate that decides if a failed
// action is retried after a backoff delay, provided it has retries left.
// There is no default: without a predicate, failures are final.
func SetShouldRetryOnError(fn func(error) bool) ExecutorOption {
	return func(e *Executor) {
		e.shouldRetry = fn
	}
}

// SetInterceptor specifies the interceptor that is run before every final
// result is delivered and before every retry is scheduled.
func SetInterceptor(fn Interceptor) ExecutorOption {
	return func(e *Executor) {
		e.interceptor = fn
	}
}

// SetBackoffFunc specifies the backoff function that returns the timespan
// between retries of failed actions. Fibonacci backoff in milliseconds is
// used by default.
func SetBackoffFunc(fn BackoffFunc) ExecutorOption {
	return func(e *Executor) {
		if fn == nil {
			e.backoff = defaultBackoff
		} else {
			e.backoff = fn
		}
	}
}

// SetClock specifies the clock used to schedule retries.
func SetClock(clock Clock) ExecutorOption {
	return func(e *Executor) {
		if clock == nil {
			e.clock = wallClock{}
		} else {
			e.clock = clock
		}
	}
}

// SetLogger specifies the logger to use when reporting. Pass nil to
// disable logging.
func SetLogger(logger Logger) ExecutorOption {
	return func(e *Executor) {
		if logger == nil {
			e.logger = nopLogger{}
		} else {
			e.logger = logger
		}
	}
}

// SetStore specifies the store for statistics and watch events.
// The default is an InMemoryStore.
func SetStore(store Store) ExecutorOption {
	return func(e *Executor) {
		if store == nil {
			e.st = NewInMemoryStore()
		} else {
			e.st = store
		}
	}
}

// SetWatchStatsInterval specifies the interval at which watchers receive
// ManagerStats events. Use zero or a negative value to disable them.
func SetWatchStatsInterval(interval time.Duration) ExecutorOption {
	return func(e *Executor) {
		e.statsInterval = interval
	}
}

// Enqueue adds an action to the queue and executes it immediately.
// cb, if not nil, is called once with the final outcome of the action.
//
// Enqueue returns a *ValidationError if the action is malformed and
// ErrClosed if the executor has been closed. All other failures are
// reported to cb.
//
// If another goroutine is busy running the executor, the action is
// started by that goroutine and Enqueue may return before it started.
func (e *Executor) Enqueue(action *Action, cb Callback) error {
	if err := validateAction(action); err != nil {
		return err
	}
	e.mu.Lock()
	closed := e.closed
	e.mu.Unlock()
	if closed {
		return ErrClosed
	}

	task := newTask(action, cb, e.clock.Now())
	e.run(func() {
		e.mu.Lock()
		e.queue = append(e.queue, task)
		e.mu.Unlock()
		e.incr(EnqueuedField)
		e.publish(&WatchEvent{Type: TaskEnqueue, Task: task.Spec()})
		e.execute(task)
	})
	return nil
}

// Len returns the number of tasks in the queue.
func (e *Executor) Len() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return len(e.queue)
}

// Stats returns a snapshot of the current statistics, e.g. the number
// of started and completed tasks.
func (e *Executor) Stats() (*Stats, error) {
	st, err := e.st.StatsSnapshot()
	if err != nil {
		return nil, err
	}
	st.QueueSize = e.Len()
	return st, nil
}

// Close stops all pending retries and rejects new actions. Tasks that
// were waiting for a retry fail with an error wrapping both ErrClosed and
// the last error of the action. Actions that are currently executing
// still deliver their outcome, but are not retried anymore.
func (e *Executor) Close() error {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return nil
	}
	e.closed = true
	e.mu.Unlock()

	e.run(func() {
		e.mu.Lock()
		tasks := append([]*Task(nil), e.queue...)
		e.mu.Unlock()
		for _, task := range tasks {
			if task.timer != nil {
				task.timer.Stop()
				task.timer = nil
			}
			if task.Status() == StatusQueuedForRetrying {
				e.finish(task, Result{Err: closedError(task.lastErr)})
			}
		}
		e.publish(&WatchEvent{Type: ManagerClose})
	})
	return nil
}

func (e *Executor) isClosed() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.closed
}

// run executes job in a turn of the executor. Turns never overlap: if
// another goroutine is draining the jobs, job is appended and run by that
// goroutine, otherwise the calling goroutine drains until no job is left.
func (e *Executor) run(job func()) {
	e.mu.Lock()
	e.jobs = append(e.jobs, job)
	if e.draining {
		e.mu.Unlock()
		return
	}
	e.draining = true
	e.mu.Unlock()
	e.drain()
}

func (e *Executor) drain() {
	completed := false
	defer func() {
		if !completed {
			// A job panicked; the next call to run picks up the rest.
			e.mu.Lock()
			e.draining = false
			e.mu.Unlock()
		}
	}()
	for {
		e.mu.Lock()
		if len(e.jobs) == 0 {
			e.draining = false
			e.mu.Unlock()
			completed = true
			return
		}
		job := e.jobs[0]
		e.jobs[0] = nil
		e.jobs = e.jobs[1:]
		e.mu.Unlock()
		job()
	}
}

// settle hands a continuation to start. If the continuation is called
// before start returns, then runs inline right after start, i.e. in the
// current turn. If it is called later, then runs in a new turn. Calls
// after the first one are ignored.
func settle[T any](e *Executor, what string, start func(resume func(T)), then func(T)) {
	var (
		mu       sync.Mutex
		returned bool
		called   bool
		early    bool
		value    T
	)
	start(func(v T) {
		mu.Lock()
		if called {
			mu.Unlock()
			e.logger.Printf("actionqueue: %s invoked more than once", what)
			return
		}
		called = true
		if !returned {
			value, early = v, true
			mu.Unlock()
			return
		}
		mu.Unlock()
		e.run(func() { then(v) })
	})

	mu.Lock()
	returned = true
	v, inline := value, early
	mu.Unlock()
	if inline {
		then(v)
	}
}

// execute runs the action of task and classifies its outcome.
func (e *Executor) execute(task *Task) {
	e.setTaskStatus(task, StatusRunning, nil)

	settle(e, "callback of action "+task.Action.Name, func(resume func(Result)) {
		task.Action.Execute(e.actx, func(err error, values ...interface{}) {
			resume(Result{Err: err, Values: values})
		})
	}, func(res Result) {
		e.handleResult(task, res)
	})
}

func (e *Executor) handleResult(task *Task, res Result) {
	switch {
	case KindOf(res.Err) == KindNotReady:
		e.setTaskStatus(task, StatusNotReady, nil)
		e.scheduleSweep()

	case !e.isClosed() && e.shouldRetryTask(task, res.Err):
		e.intercept(task, res, func(res Result) {
			e.queueForRetry(task, res.Err)
		})

	default:
		e.finish(task, res)
	}
}

// finish runs the interceptor and delivers the final result of task.
// Whether the task is done or failed depends on the error the action
// reported, not on the one the interceptor passes on.
func (e *Executor) finish(task *Task, res Result) {
	err := res.Err
	e.intercept(task, res, func(res Result) {
		if task.callback != nil {
			task.callback(res.Err, res.Values...)
		}
		if err != nil {
			e.setTaskStatus(task, StatusFailed, err)
		} else {
			e.setTaskStatus(task, StatusDone, nil)
		}
		e.executeQueuedActions()
	})
}

func (e *Executor) shouldRetryTask(task *Task, err error) bool {
	return err != nil &&
		task.RetriesLeft() > 0 &&
		e.shouldRetry != nil &&
		e.shouldRetry(err)
}

// intercept runs the interceptor, if any, before next.
func (e *Executor) intercept(task *Task, res Result, next func(Result)) {
	if e.interceptor == nil {
		next(res)
		return
	}
	settle(e, "interceptor continuation for action "+task.Action.Name, func(resume func(Result)) {
		e.interceptor(task.Action, res, resume)
	}, next)
}

// queueForRetry consumes a retry of task and arms its backoff timer.
// After Close, the task fails instead.
func (e *Executor) queueForRetry(task *Task, err error) {
	if e.isClosed() {
		e.finish(task, Result{Err: closedError(err)})
		return
	}
	retry := task.useRetry()
	delay := e.backoff(retry)
	task.setBackoff(delay)
	task.lastErr = err
	e.setTaskStatus(task, StatusQueuedForRetrying, err)

	task.timer = e.clock.AfterFunc(delay, func() {
		e.run(func() {
			task.timer = nil
			// Close fails the task if it is still waiting.
			if e.isClosed() || task.Status() != StatusQueuedForRetrying {
				return
			}
			e.setTaskStatus(task, StatusRetrying, nil)
			e.executeQueuedActions()
		})
	})
	e.executeQueuedActions()
}

// scheduleSweep arms a zero-delay timer that runs executeQueuedActions in
// a new turn, so the goroutine that got the not-ready report can return.
// Requests are coalesced until a sweep starts; any sweep that starts in
// the meantime serves them.
func (e *Executor) scheduleSweep() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.sweepPending {
		return
	}
	e.sweepPending = true
	e.sweepReq++
	req := e.sweepReq
	e.sweepTimer = e.clock.AfterFunc(0, func() {
		e.run(func() {
			e.mu.Lock()
			stale := !e.sweepPending || e.sweepReq != req
			e.mu.Unlock()
			if !stale {
				e.executeQueuedActions()
			}
		})
	})
}

// executeQueuedActions removes finished tasks from the queue and restarts
// tasks that are not ready or whose backoff elapsed.
func (e *Executor) executeQueuedActions() {
	testSweepStarted()
	e.sweeps++
	gen := e.sweeps

	e.mu.Lock()
	if e.sweepPending {
		e.sweepPending = false
		if e.sweepTimer != nil {
			e.sweepTimer.Stop()
			e.sweepTimer = nil
		}
	}
	pending := make([]*Task, 0, len(e.queue))
	for _, task := range e.queue {
		if !task.Status().Terminal() {
			pending = append(pending, task)
		}
	}
	e.queue = pending
	pending = append([]*Task(nil), pending...)
	e.mu.Unlock()

	if len(pending) == 0 {
		if e.onEmptyQueue != nil {
			e.onEmptyQueue()
		}
		e.publish(&WatchEvent{Type: QueueEmpty})
		return
	}

	for _, task := range pending {
		// Skip tasks a nested sweep has restarted in the meantime.
		if task.restartedBy > gen || !task.Status().restartable() {
			continue
		}
		task.restartedBy = gen
		e.execute(task)
	}
}

// setTaskStatus changes the status of the task and reports the change.
func (e *Executor) setTaskStatus(task *Task, status Status, err error) {
	task.setStatus(status)
	if e.onStatusChange != nil {
		e.onStatusChange(task, status, err)
	}
	if field, ok := statsFieldFor(status); ok {
		e.incr(field)
	}
	ev := &WatchEvent{Type: eventTypeFor(status), Task: task.Spec()}
	if err != nil {
		ev.Error = err.Error()
	}
	e.publish(ev)
}

func (e *Executor) incr(field StatsField) {
	if err := e.st.StatsIncrement(field, 1); err != nil {
		e.logger.Printf("Error incrementing %s statistic: %v", field, err)
	}
}

func (e *Executor) publish(ev *WatchEvent) {
	if err := e.st.Publish(ev); err != nil {
		e.logger.Printf("Error publishing %s event: %v", ev.Type, err)
	}
}
