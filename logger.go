// Copyright 2016-present Oliver Eilhard. All rights reserved.
// Use of this source code is governed by a MIT-license.
// See http://olivere.mit-license.org/license.txt for details.

package actionqueue

import "log"

// Logger is used by the executor to report problems that cannot be
// returned to a caller, e.g. a failing Store or a continuation that was
// invoked twice.
type Logger interface {
	Printf(format string, v ...interface{})
}

type stdLogger struct{}

func (stdLogger) Printf(format string, v ...interface{}) {
	log.Printf(format, v...)
}

type nopLogger struct{}

func (nopLogger) Printf(format string, v ...interface{}) {}
