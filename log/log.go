// Package log holds the level loggers used across the engine. Every logger
// can be swapped for anything satisfying logging.LoggerInterface, including
// the standard library *log.Logger.
package log

import (
	"io"

	"github.com/RichardKnop/logging"
)

var (
	logger = logging.New(nil, nil, new(logging.ColouredFormatter))

	// DEBUG is used for per-message worker chatter
	DEBUG = logger[logging.DEBUG]
	// INFO ...
	INFO = logger[logging.INFO]
	// WARNING ...
	WARNING = logger[logging.WARNING]
	// ERROR is used for task failures and recovered panics
	ERROR = logger[logging.ERROR]
	// FATAL ...
	FATAL = logger[logging.FATAL]
)

// Set sets a custom logger for all log levels
func Set(l logging.LoggerInterface) {
	DEBUG = l
	INFO = l
	WARNING = l
	ERROR = l
	FATAL = l
}

// SetOutput rebuilds the level loggers on top of the given writers. Lower
// levels go to out, ERROR and FATAL go to errOut. A nil writer falls back
// to stdout / stderr respectively.
func SetOutput(out, errOut io.Writer) {
	l := logging.New(out, errOut, new(logging.DefaultFormatter))
	DEBUG = l[logging.DEBUG]
	INFO = l[logging.INFO]
	WARNING = l[logging.WARNING]
	ERROR = l[logging.ERROR]
	FATAL = l[logging.FATAL]
}

// SetDebug sets a custom logger for DEBUG level logs
func SetDebug(l logging.LoggerInterface) {
	DEBUG = l
}

// SetInfo sets a custom logger for INFO level logs
func SetInfo(l logging.LoggerInterface) {
	INFO = l
}

// SetWarning sets a custom logger for WARNING level logs
func SetWarning(l logging.LoggerInterface) {
	WARNING = l
}

// SetError sets a custom logger for ERROR level logs
func SetError(l logging.LoggerInterface) {
	ERROR = l
}

// SetFatal sets a custom logger for FATAL level logs
func SetFatal(l logging.LoggerInterface) {
	FATAL = l
}
