//go:build unit

package logger

import (
	"bytes"
	"encoding/json"
	"errors"
	"go-sessiond/internal/config"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLogger(t *testing.T) {
	t.Run("console format", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(config.LogConfig{Level: "info", Format: "console"}, &buf)

		log.Info("session slot released")

		output := buf.String()
		assert.Contains(t, output, "session slot released")
		assert.NotContains(t, output, "{", "expected console format, got json-like output")
	})

	t.Run("json format with fields", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(config.LogConfig{Level: "error", Format: "json"}, &buf)

		log.With(map[string]interface{}{"dispatch_id": "abc"}).Error(errors.New("commit failed"), "failed to close session")

		var entry map[string]interface{}
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry), "output: %s", buf.String())
		assert.Equal(t, "error", entry["level"])
		assert.Equal(t, "failed to close session", entry["message"])
		assert.Equal(t, "commit failed", entry["error"])
		assert.Equal(t, "abc", entry["dispatch_id"])
	})

	t.Run("log level filtering", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(config.LogConfig{Level: "warn", Format: "console"}, &buf)

		log.Info("this should be ignored")
		log.Warn("this should appear")

		output := buf.String()
		assert.False(t, strings.Contains(output, "this should be ignored"))
		assert.True(t, strings.Contains(output, "this should appear"))
	})

	t.Run("invalid level falls back to info", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(config.LogConfig{Level: "loud", Format: "json"}, &buf)

		log.Debug("hidden")
		log.Info("shown")

		assert.NotContains(t, buf.String(), "hidden")
		assert.Contains(t, buf.String(), "shown")
	})
}
