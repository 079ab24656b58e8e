// Package logging configures the process-wide zerolog logger: a
// human-readable console writer in development, structured JSON in
// production, level driven by configuration. Every package accepts a
// zerolog.Logger via constructor injection; this package only builds the
// one the process wires in at startup.
package logging

import (
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Setup builds a zerolog.Logger at level, pretty-printed to stderr when
// pretty is true (development) or newline-delimited JSON otherwise
// (production).
func Setup(level string, pretty bool) zerolog.Logger {
	zerolog.TimeFieldFormat = time.RFC3339

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	var w io.Writer = os.Stderr
	if pretty {
		w = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.Kitchen}
	}

	logger := zerolog.New(w).Level(lvl).With().Timestamp().Logger()
	log.Logger = logger
	return logger
}
