package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func lookupFrom(env map[string]string) func(string) (string, bool) {
	return func(key string) (string, bool) {
		v, ok := env[key]
		return v, ok
	}
}

func TestFromLookup_Defaults(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(nil))
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
	assert.Equal(t, ":3000", cfg.Addr)
	assert.Equal(t, 100, cfg.QueueSize)
	assert.Equal(t, 54*time.Second, cfg.PingInterval)
}

func TestFromLookup_Overrides(t *testing.T) {
	cfg, err := FromLookup(lookupFrom(map[string]string{
		"SERVER_ADDR":         "127.0.0.1:8080",
		"ALLOWED_ORIGINS":     "http://localhost:3000, https://chat.example.com,",
		"MAX_MESSAGE_SIZE":    "8192",
		"CLIENT_QUEUE_SIZE":   "16",
		"RATE_LIMIT_INTERVAL": "250ms",
		"WRITE_TIMEOUT":       "5",
		"LOG_FORMAT":          "JSON",
		"LOG_LEVEL":           "debug",
		"ANNOUNCE_PRESENCE":   "true",
		"TRACING_ENABLED":     "1",
		"TRACING_ZIPKIN_URL":  "http://zipkin:9411/api/v2/spans",
	}))
	require.NoError(t, err)

	assert.Equal(t, "127.0.0.1:8080", cfg.Addr)
	assert.Equal(t, []string{"http://localhost:3000", "https://chat.example.com"}, cfg.AllowedOrigins)
	assert.Equal(t, int64(8192), cfg.MaxMessageSize)
	assert.Equal(t, 16, cfg.QueueSize)
	assert.Equal(t, 250*time.Millisecond, cfg.RateLimitInterval)
	assert.Equal(t, 5*time.Second, cfg.WriteTimeout, "bare numbers are seconds")
	assert.Equal(t, "json", cfg.LogFormat)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.True(t, cfg.AnnouncePresence)
	assert.True(t, cfg.TracingEnabled)
	assert.Equal(t, "http://zipkin:9411/api/v2/spans", cfg.TracingZipkinURL)
}

func TestFromLookup_Invalid(t *testing.T) {
	cases := map[string]map[string]string{
		"bad integer":     {"CLIENT_QUEUE_SIZE": "lots"},
		"bad duration":    {"PING_INTERVAL": "soon"},
		"bad bool":        {"ANNOUNCE_PRESENCE": "maybe"},
		"zero queue":      {"CLIENT_QUEUE_SIZE": "0"},
		"zero interval":   {"RATE_LIMIT_INTERVAL": "0s"},
		"unknown format":  {"LOG_FORMAT": "xml"},
		"unknown level":   {"LOG_LEVEL": "chatty"},
		"tiny frame size": {"MAX_MESSAGE_SIZE": "10"},
		"bad zipkin url":  {"TRACING_ZIPKIN_URL": "not a url"},
	}
	for name, env := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := FromLookup(lookupFrom(env))
			assert.Error(t, err)
		})
	}
}

func TestLoad_EnvFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("CLIENT_QUEUE_SIZE=7\n"), 0o600))

	t.Setenv("CLIENT_QUEUE_SIZE", "")
	require.NoError(t, os.Unsetenv("CLIENT_QUEUE_SIZE"))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.QueueSize)

	t.Run("missing file falls back to environment", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "missing.env"))
		assert.NoError(t, err)
	})
}

func TestWatch(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ".env")
	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=info\n"), 0o600))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	changes := make(chan map[string]string, 4)
	require.NoError(t, Watch(ctx, path, func(values map[string]string) {
		changes <- values
	}))

	require.NoError(t, os.WriteFile(path, []byte("LOG_LEVEL=debug\n"), 0o600))

	deadline := time.After(3 * time.Second)
	for {
		select {
		case values := <-changes:
			if values["LOG_LEVEL"] == "debug" {
				return
			}
		case <-deadline:
			t.Fatal("timed out waiting for config change")
		}
	}
}
