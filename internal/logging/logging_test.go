package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewWithWriter(t *testing.T) {
	original := slog.Default()
	defer slog.SetDefault(original)

	t.Run("json format", func(t *testing.T) {
		var buf bytes.Buffer
		NewWithWriter(&buf, "json", "info")

		slog.Info("hello", "client_id", "abc")

		var entry map[string]any
		require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
		assert.Equal(t, "hello", entry["msg"])
		assert.Equal(t, "abc", entry["client_id"])
	})

	t.Run("text format filters below level", func(t *testing.T) {
		var buf bytes.Buffer
		NewWithWriter(&buf, "text", "warn")

		slog.Info("quiet")
		slog.Warn("loud")

		out := buf.String()
		assert.NotContains(t, out, "quiet")
		assert.Contains(t, out, "msg=loud")
		assert.Contains(t, out, "source=")
	})

	t.Run("level can change at runtime", func(t *testing.T) {
		var buf bytes.Buffer
		lvl := NewWithWriter(&buf, "text", "info")

		slog.Debug("before")
		lvl.Set(slog.LevelDebug)
		slog.Debug("after")

		out := buf.String()
		assert.NotContains(t, out, "before")
		assert.Contains(t, out, "after")
	})
}

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("debug"))
	assert.Equal(t, slog.LevelWarn, ParseLevel("WARN"))
	assert.Equal(t, slog.LevelError, ParseLevel(" error "))
	assert.Equal(t, slog.LevelInfo, ParseLevel("nonsense"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
}
