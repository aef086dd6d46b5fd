package server_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/chathub/internal/announcer"
	"github.com/nfrund/chathub/internal/config"
	"github.com/nfrund/chathub/internal/hub"
	"github.com/nfrund/chathub/internal/metrics"
	"github.com/nfrund/chathub/internal/pubsub"
	"github.com/nfrund/chathub/internal/server"
	"github.com/nfrund/chathub/internal/websocket"
)

// integrationFixture is a fully wired server behind httptest.
type integrationFixture struct {
	server     *server.Server
	testServer *httptest.Server
	hub        *hub.Hub
	bus        *pubsub.WatermillBridge
}

func (f *integrationFixture) wsURL() string {
	return "ws" + strings.TrimPrefix(f.testServer.URL, "http") + "/ws"
}

// setupIntegrationTest wires the same components the application does.
// mutate may adjust the configuration before anything is built.
func setupIntegrationTest(t *testing.T, mutate func(*config.Config)) *integrationFixture {
	t.Helper()

	cfg := config.Default()
	if mutate != nil {
		mutate(cfg)
	}

	reg := prometheus.NewRegistry()
	m := metrics.New(reg)
	h := hub.New(hub.WithMetrics(m))
	bus := pubsub.NewWatermillBridge()

	bridge := websocket.NewBridge(websocket.BridgeDependencies{
		Hub:       h,
		Publisher: bus,
		Metrics:   m,
		Options: websocket.Options{
			AllowedOrigins:    cfg.AllowedOrigins,
			MaxMessageSize:    cfg.MaxMessageSize,
			MaxTextLength:     cfg.MaxTextLength,
			QueueSize:         cfg.QueueSize,
			RateLimitBurst:    cfg.RateLimitBurst,
			RateLimitInterval: cfg.RateLimitInterval,
			WriteTimeout:      cfg.WriteTimeout,
			PingInterval:      cfg.PingInterval,
		},
	})

	ctx, cancel := context.WithCancel(context.Background())
	require.NoError(t, announcer.New(announcer.Dependencies{
		Subscriber:       bus,
		Hub:              h,
		AnnouncePresence: cfg.AnnouncePresence,
	}).Start(ctx))

	s := server.New(server.Dependencies{
		Config:    cfg,
		Hub:       h,
		Bridge:    bridge,
		Publisher: bus,
		Registry:  reg,
	})
	testServer := httptest.NewServer(s.E)

	t.Cleanup(func() {
		shutdownCtx, done := context.WithTimeout(context.Background(), 2*time.Second)
		defer done()
		require.NoError(t, bridge.Shutdown(shutdownCtx))
		testServer.Close()
		cancel()
		bus.Close()
	})

	return &integrationFixture{server: s, testServer: testServer, hub: h, bus: bus}
}
