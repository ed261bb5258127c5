package logging

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/gotrs-io/configurator-e2e/internal/config"
)

func TestNewWithWriter(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(config.LoggingConfig{Level: "INFO", Format: "json"}, &buf)
		logger.Debug().Msg("hidden")
		logger.Info().Str("scenario", "app:create").Msg("scenario started")

		out := buf.String()
		assert.NotContains(t, out, "hidden")
		assert.Contains(t, out, `"scenario":"app:create"`)
		assert.Contains(t, out, `"message":"scenario started"`)
	})

	t.Run("console", func(t *testing.T) {
		var buf bytes.Buffer
		logger := NewWithWriter(config.LoggingConfig{Level: "debug", Format: "console"}, &buf)
		logger.Debug().Str("step", "click").Msg("step finished")

		out := buf.String()
		assert.Contains(t, out, "step=click")
		assert.Contains(t, out, "step finished")
	})
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.NotPanics(t, func() { logger.Error().Msg("dropped") })
}
