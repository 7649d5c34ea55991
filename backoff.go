// Copyright 2016-present Oliver Eilhard. All rights reserved.
// Use of this source code is governed by a MIT-license.
// See http://olivere.mit-license.org/license.txt for details.

package actionqueue

import (
	"math"
	"sync"
	"time"
)

// BackoffFunc returns the delay before the given retry of a task.
// Retries are counted from 1.
type BackoffFunc func(retry int) time.Duration

const (
	// fibonacciOffset sets the floor of the Fibonacci backoff: the first
	// retry waits fib(15) units.
	fibonacciOffset = 14

	// maxFibonacci is the largest n for which fib(n) fits into an uint64.
	maxFibonacci = 93
)

var defaultBackoff = FibonacciBackoff(time.Millisecond)

// FibonacciBackoff returns a BackoffFunc that waits fib(14+retry) units
// before the given retry, i.e. 610, 987, 1597, ... units. Delays that do
// not fit into a time.Duration are capped.
func FibonacciBackoff(unit time.Duration) BackoffFunc {
	return func(retry int) time.Duration {
		if unit <= 0 {
			return 0
		}
		if retry < 1 {
			retry = 1
		}
		n := fib(fibonacciOffset + retry)
		if n > uint64(math.MaxInt64)/uint64(unit) {
			return time.Duration(math.MaxInt64)
		}
		return time.Duration(n) * unit
	}
}

var fibTable = struct {
	sync.Mutex
	v []uint64
}{v: []uint64{0, 1}}

// fib returns the n-th Fibonacci number with fib(0) = 0 and fib(1) = 1.
// Values beyond the range of uint64 are capped at math.MaxUint64.
func fib(n int) uint64 {
	if n < 0 {
		return 0
	}
	if n > maxFibonacci {
		return math.MaxUint64
	}
	fibTable.Lock()
	defer fibTable.Unlock()
	for i := len(fibTable.v); i <= n; i++ {
		fibTable.v = append(fibTable.v, fibTable.v[i-1]+fibTable.v[i-2])
	}
	return fibTable.v[n]
}
