package server

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"

	"github.com/nfrund/chathub/internal/middleware"
	"github.com/nfrund/chathub/web"
)

// RegisterRoutes sets up all the application routes.
func (s *Server) RegisterRoutes() {
	s.E.GET("/", s.handleIndex)
	s.E.GET("/announce", s.handleAnnouncePage)
	s.E.GET("/ws", s.bridge.Handler())
	s.E.GET("/health", s.handleHealth)
	s.E.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{
		Gatherer: s.registry,
	}))

	s.E.StaticFS("/static", echo.MustSubFS(web.FS, "static"))

	api := s.E.Group("/api")
	api.GET("/stats", s.handleStats)
	api.POST("/announcements", s.handleAnnouncement, middleware.RateLimiter(s.cfg.AnnounceRatePerMinute))
}
