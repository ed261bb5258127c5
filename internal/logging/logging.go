// Package logging builds the structured logger shared by the runner, the CLI
// and the fixture server.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/phuslu/log"

	"github.com/gotrs-io/configurator-e2e/internal/config"
)

// New returns a logger writing to stderr. Format "json" emits one JSON object
// per line; anything else gets the human-readable console writer.
func New(cfg config.LoggingConfig) *log.Logger {
	return NewWithWriter(cfg, os.Stderr)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(cfg config.LoggingConfig, w io.Writer) *log.Logger {
	logger := &log.Logger{
		Level: log.ParseLevel(strings.ToLower(cfg.Level)),
	}
	if strings.EqualFold(cfg.Format, "json") {
		logger.Writer = &log.IOWriter{Writer: w}
	} else {
		logger.Writer = &log.ConsoleWriter{
			Writer:         w,
			ColorOutput:    false,
			EndWithMessage: true,
		}
	}
	return logger
}

// Discard returns a logger that drops everything; tests use it.
func Discard() *log.Logger {
	return &log.Logger{Level: log.PanicLevel, Writer: &log.IOWriter{Writer: io.Discard}}
}
