// Copyright 2016-present Oliver Eilhard. All rights reserved.
// Use of this source code is governed by a MIT-license.
// See http://olivere.mit-license.org/license.txt for details.

package actionqueue

import (
	"math"
	"testing"
	"time"
)

func TestFib(t *testing.T) {
	tests := []struct {
		N    int
		Want uint64
	}{
		{-1, 0},
		{0, 0},
		{1, 1},
		{2, 1},
		{10, 55},
		{15, 610},
		{16, 987},
		{17, 1597},
		{93, 12200160415121876738},
		{94, math.MaxUint64},
	}
	for _, tt := range tests {
		if want, got := tt.Want, fib(tt.N); want != got {
			t.Errorf("fib(%d): want %d, got %d", tt.N, want, got)
		}
	}
}

func TestFibonacciBackoff(t *testing.T) {
	tests := []struct {
		Retry int
		Want  time.Duration
	}{
		{0, 610 * time.Millisecond},
		{1, 610 * time.Millisecond},
		{2, 987 * time.Millisecond},
		{3, 1597 * time.Millisecond},
		{4, 2584 * time.Millisecond},
		{5, 4181 * time.Millisecond},
	}
	backoff := FibonacciBackoff(time.Millisecond)
	for _, tt := range tests {
		if want, got := tt.Want, backoff(tt.Retry); want != got {
			t.Errorf("retry %d: want %v, got %v", tt.Retry, want, got)
		}
	}
}

func TestFibonacciBackoffIsMonotonicAndSaturates(t *testing.T) {
	backoff := FibonacciBackoff(time.Second)
	prev := backoff(1)
	for k := 2; k < 200; k++ {
		d := backoff(k)
		if d < prev {
			t.Fatalf("retry %d: want >= %v, got %v", k, prev, d)
		}
		prev = d
	}
	if want, got := time.Duration(math.MaxInt64), prev; want != got {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestFibonacciBackoffWithoutUnit(t *testing.T) {
	if want, got := time.Duration(0), FibonacciBackoff(0)(3); want != got {
		t.Errorf("want %v, got %v", want, got)
	}
}

func TestFibConcurrentUse(t *testing.T) {
	done := make(chan uint64, 8)
	for i := 0; i < cap(done); i++ {
		go func() { done <- fib(80) }()
	}
	for i := 0; i < cap(done); i++ {
		if want, got := uint64(23416728348467685), <-done; want != got {
			t.Errorf("want %d, got %d", want, got)
		}
	}
}
