// Package app wires the hub, the WebSocket bridge, the event bus and the HTTP
// server into a runnable application.
package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/samber/do/v2"

	"github.com/nfrund/chathub/internal/announcer"
	"github.com/nfrund/chathub/internal/config"
	"github.com/nfrund/chathub/internal/pubsub"
	"github.com/nfrund/chathub/internal/server"
)

// App is a fully wired chat hub.
type App struct {
	cfg       *config.Config
	server    *server.Server
	announcer *announcer.Announcer
	bus       *pubsub.WatermillBridge

	shutdownTracing func(context.Context) error
}

// New builds every component from cfg.
func New(cfg *config.Config) (*App, error) {
	tracer, shutdownTracing, err := pubsub.SetupTracing(context.Background(), pubsub.TracingConfig{
		Enabled:     cfg.TracingEnabled,
		ServiceName: cfg.TracingServiceName,
		ZipkinURL:   cfg.TracingZipkinURL,
	})
	if err != nil {
		return nil, fmt.Errorf("setup tracing: %w", err)
	}

	injector := do.New()
	provide(injector, cfg, tracer)

	srv, err := do.Invoke[*server.Server](injector)
	if err != nil {
		return nil, fmt.Errorf("build server: %w", err)
	}
	ann, err := do.Invoke[*announcer.Announcer](injector)
	if err != nil {
		return nil, fmt.Errorf("build announcer: %w", err)
	}

	return &App{
		cfg:       cfg,
		server:    srv,
		announcer: ann,
		bus:       do.MustInvoke[*pubsub.WatermillBridge](injector),

		shutdownTracing: shutdownTracing,
	}, nil
}

// Server returns the HTTP server.
func (a *App) Server() *server.Server {
	return a.server
}

// Run serves until ctx is canceled or the listener fails, then shuts down
// within the configured timeout.
func (a *App) Run(ctx context.Context) error {
	subCtx, stopSubscribers := context.WithCancel(context.Background())
	defer stopSubscribers()
	if err := a.announcer.Start(subCtx); err != nil {
		return fmt.Errorf("start announcer: %w", err)
	}

	serveErr := make(chan error, 1)
	go func() {
		serveErr <- a.server.Start()
	}()

	var runErr error
	select {
	case <-ctx.Done():
		slog.Info("Shutdown signal received")
	case runErr = <-serveErr:
		if runErr == nil {
			return nil
		}
		slog.Error("Server stopped unexpectedly", "error", runErr)
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
	defer cancel()
	err := a.Shutdown(shutdownCtx)
	stopSubscribers()
	return errors.Join(runErr, err)
}

// Shutdown stops the server, ends every session and closes the event bus.
func (a *App) Shutdown(ctx context.Context) error {
	var errs []error
	if err := a.server.Shutdown(ctx); err != nil {
		errs = append(errs, err)
	}
	if err := a.bus.Close(); err != nil {
		errs = append(errs, fmt.Errorf("close event bus: %w", err))
	}
	if err := a.shutdownTracing(ctx); err != nil {
		errs = append(errs, fmt.Errorf("flush traces: %w", err))
	}
	return errors.Join(errs...)
}
