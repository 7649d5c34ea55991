// Package actionqueue executes actions and keeps nudging them forward
// until they reach a final outcome.
//
// Applications using actionqueue first create an Executor. The executor
// has a queue of tasks, one per call to Enqueue. Every task wraps an
// Action: a name, an Execute func that reports its outcome via a
// callback, and an optional number of retries.
//
// Enqueue executes the action immediately. When the action reports its
// outcome, the executor classifies it. If the action reported ErrNotReady,
// e.g. because it could not get a lock on all the objects it works with,
// the task stays in the queue and is restarted by the next sweep of the
// queue. That is either the sweep following the next final outcome of
// another task or, at the latest, a sweep the executor starts right away
// on a goroutine of its clock. Not-ready restarts are unlimited and do not
// use up retries. If the action failed and the predicate set with
// SetShouldRetryOnError accepts the error, the task is queued for retrying
// as long as it has retries left. The delay before the k-th retry follows
// the Fibonacci sequence: fib(14+k) milliseconds by default. When the delay
// has elapsed, the task is restarted by a sweep of the queue. Any other
// outcome is final: the callback passed to Enqueue receives it and the
// task is removed from the queue by the next sweep. When a sweep finds
// no task left, the executor calls the func set with SetOnEmptyQueue.
//
// A single Interceptor can be installed to observe every final outcome and
// every retry before it takes effect. Every change of a task's status is
// reported to the func set with SetOnStatusChange, counted in the
// executor's Stats, and sent to consumers of Watch.
//
// The executor does not run its own worker goroutines. Its logic runs in
// turns on the goroutines that call Enqueue, report outcomes, or fire
// timers, and turns never overlap. Enqueue returns after the first
// execution of the action, even if the action is not ready.
//
// Close cancels pending retries. The tasks waiting for them fail with an
// error wrapping ErrClosed.
package actionqueue
