package app

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/samber/do/v2"
	"go.opentelemetry.io/otel/trace"

	"github.com/nfrund/chathub/internal/announcer"
	"github.com/nfrund/chathub/internal/config"
	"github.com/nfrund/chathub/internal/hub"
	"github.com/nfrund/chathub/internal/metrics"
	"github.com/nfrund/chathub/internal/pubsub"
	"github.com/nfrund/chathub/internal/server"
	"github.com/nfrund/chathub/internal/websocket"
)

// provide registers every service the application needs. Services are built
// lazily on first invoke, so only what Run touches is ever constructed.
func provide(i do.Injector, cfg *config.Config, tracer trace.Tracer) {
	do.ProvideValue(i, cfg)
	do.ProvideValue(i, tracer)

	do.Provide(i, func(i do.Injector) (*prometheus.Registry, error) {
		reg := prometheus.NewRegistry()
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
		return reg, nil
	})

	do.Provide(i, func(i do.Injector) (*metrics.Metrics, error) {
		return metrics.New(do.MustInvoke[*prometheus.Registry](i)), nil
	})

	do.Provide(i, func(i do.Injector) (*pubsub.WatermillBridge, error) {
		return pubsub.NewWatermillBridge(pubsub.WithTracer(do.MustInvoke[trace.Tracer](i))), nil
	})

	do.Provide(i, func(i do.Injector) (*hub.Hub, error) {
		return hub.New(hub.WithMetrics(do.MustInvoke[*metrics.Metrics](i))), nil
	})

	do.Provide(i, func(i do.Injector) (*websocket.Bridge, error) {
		return websocket.NewBridge(websocket.BridgeDependencies{
			Hub:       do.MustInvoke[*hub.Hub](i),
			Publisher: do.MustInvoke[*pubsub.WatermillBridge](i),
			Metrics:   do.MustInvoke[*metrics.Metrics](i),
			Options:   BridgeOptions(do.MustInvoke[*config.Config](i)),
		}), nil
	})

	do.Provide(i, func(i do.Injector) (*announcer.Announcer, error) {
		return announcer.New(announcer.Dependencies{
			Subscriber:       do.MustInvoke[*pubsub.WatermillBridge](i),
			Hub:              do.MustInvoke[*hub.Hub](i),
			AnnouncePresence: do.MustInvoke[*config.Config](i).AnnouncePresence,
		}), nil
	})

	do.Provide(i, func(i do.Injector) (*server.Server, error) {
		return server.New(server.Dependencies{
			Config:    do.MustInvoke[*config.Config](i),
			Hub:       do.MustInvoke[*hub.Hub](i),
			Bridge:    do.MustInvoke[*websocket.Bridge](i),
			Publisher: do.MustInvoke[*pubsub.WatermillBridge](i),
			Registry:  do.MustInvoke[*prometheus.Registry](i),
		}), nil
	})
}

// BridgeOptions maps the connection settings of cfg onto the WebSocket bridge.
func BridgeOptions(cfg *config.Config) websocket.Options {
	return websocket.Options{
		AllowedOrigins:    cfg.AllowedOrigins,
		MaxMessageSize:    cfg.MaxMessageSize,
		MaxTextLength:     cfg.MaxTextLength,
		QueueSize:         cfg.QueueSize,
		RateLimitBurst:    cfg.RateLimitBurst,
		RateLimitInterval: cfg.RateLimitInterval,
		WriteTimeout:      cfg.WriteTimeout,
		PingInterval:      cfg.PingInterval,
	}
}
