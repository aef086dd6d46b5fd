package server

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
)

// Start serves HTTP until Shutdown is called. It returns nil after a clean shutdown.
func (s *Server) Start() error {
	slog.Info("Starting server", "addr", s.cfg.Addr)
	if err := s.E.Start(s.cfg.Addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("start server: %w", err)
	}
	return nil
}

// Shutdown stops accepting requests, ends every WebSocket session and
// releases the hub's clients, bounded by ctx.
func (s *Server) Shutdown(ctx context.Context) error {
	var errs []error
	if err := s.E.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("http shutdown: %w", err))
	}
	if err := s.bridge.Shutdown(ctx); err != nil {
		errs = append(errs, fmt.Errorf("websocket shutdown: %w", err))
	}
	s.hub.Close()
	slog.Info("Server stopped")
	return errors.Join(errs...)
}
