// Package monitoring holds the diagnostic loggers shared by the engine, the
// transport and the journal.
package monitoring

import (
	"log"
	"sync/atomic"
)

// Logf is the package-level diagnostic logger. It defaults to log.Printf but may
// be replaced by SetLogger. Tests or production code can redirect or mute it.
var Logf func(format string, v ...interface{}) = log.Printf

var verbose atomic.Bool

// SetLogger replaces the package logger. Passing nil will set a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}

// SetVerbose enables per-step trace output.
func SetVerbose(on bool) { verbose.Store(on) }

// Verbose reports whether trace output is enabled.
func Verbose() bool { return verbose.Load() }

// Tracef logs through Logf only when verbose output is enabled. Per-step
// decisions (walls seen, chosen move, frontier) go here.
func Tracef(format string, v ...interface{}) {
	if verbose.Load() {
		Logf(format, v...)
	}
}
