// Package logutil provides the package-level diagnostic logger shared by the
// analysis pipeline. The batch tools log progress and coverage warnings through
// Logf so tests can mute or capture output without touching the stdlib logger.
package logutil

import "log"

// Logf is the pipeline diagnostic logger. It defaults to log.Printf and may be
// swapped with SetLogger.
var Logf func(format string, v ...interface{}) = log.Printf

// Warnf prefixes a message with "warning:" before handing it to Logf. Used for
// recoverable conditions such as uncropped-product fallbacks.
func Warnf(format string, v ...interface{}) {
	Logf("warning: "+format, v...)
}

// SetLogger replaces the package logger. A nil argument installs a no-op logger.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		Logf = func(string, ...interface{}) {}
		return
	}
	Logf = f
}
