// Copyright 2016-present Oliver Eilhard. All rights reserved.
// Use of this source code is governed by a MIT-license.
// See http://olivere.mit-license.org/license.txt for details.

package actionqueue

import "time"

type (
	// Clock abstracts the parts of package time the executor uses to
	// schedule retries. Tests can pass their own Clock with SetClock to
	// control apparent time.
	Clock interface {
		AfterFunc(d time.Duration, f func()) Timer
		Now() time.Time
	}

	// Timer abstracts the functionality of time.Timer.
	Timer interface {
		Stop() bool
	}

	wallClock struct{}
)

// AfterFunc indirects time.AfterFunc.
func (wallClock) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}

// Now indirects time.Now.
func (wallClock) Now() time.Time {
	return time.Now()
}
