// Package monitoring holds the process-wide diagnostic logger indirection.
package monitoring

import "log"

// Logf is the diagnostic logger used across the pipeline. It defaults to
// log.Printf; SetLogger swaps it out, which tests use to mute or capture
// output.
var Logf func(format string, v ...interface{}) = log.Printf

// SetLogger replaces the package logger. A nil argument installs a no-op
// logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
