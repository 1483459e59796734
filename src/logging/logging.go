// Package logging wires up the repository engine's structured logger.
// A console writer is used when stderr is a terminal; elsewhere the
// logger emits one JSON object per line, suitable for log aggregation.
package logging

import (
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/rs/zerolog"
)

// Init configures the global zerolog logger and returns the root
// Logger for callers that want their own handle instead of the global.
func Init(verbose bool) zerolog.Logger {
	level := zerolog.InfoLevel
	if verbose {
		level = zerolog.DebugLevel
	}
	zerolog.SetGlobalLevel(level)

	var logger zerolog.Logger
	if isatty.IsTerminal(os.Stderr.Fd()) {
		logger = zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(os.Stderr).With().Timestamp().Logger()
	}

	zerolog.DefaultContextLogger = &logger
	return logger
}
