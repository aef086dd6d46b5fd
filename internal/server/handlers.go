package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nfrund/chathub/internal/events"
	"github.com/nfrund/chathub/internal/middleware"
	"github.com/nfrund/chathub/internal/pubsub"
	"github.com/nfrund/chathub/internal/rendering"
	"github.com/nfrund/chathub/web/pages"
)

type statsResponse struct {
	ConnectedClients int   `json:"connected_clients"`
	UptimeSeconds    int64 `json:"uptime_seconds"`
}

func (s *Server) handleIndex(c echo.Context) error {
	return rendering.Page(c, http.StatusOK, pages.Chat(pages.ChatProps{
		WebSocketPath: "/ws",
		MaxTextLength: s.cfg.MaxTextLength,
	}))
}

func (s *Server) handleAnnouncePage(c echo.Context) error {
	return rendering.Page(c, http.StatusOK, pages.Announce())
}

func (s *Server) handleHealth(c echo.Context) error {
	return c.String(http.StatusOK, "OK")
}

func (s *Server) handleStats(c echo.Context) error {
	return c.JSON(http.StatusOK, statsResponse{
		ConnectedClients: s.hub.Len(),
		UptimeSeconds:    int64(time.Since(s.startedAt) / time.Second),
	})
}

// handleAnnouncement queues an operator notice for broadcast to every client.
func (s *Server) handleAnnouncement(c echo.Context) error {
	var req events.Announcement
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	req.Text = strings.TrimSpace(req.Text)
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "text is required and must be at most 1000 characters")
	}

	if err := pubsub.Publish(c.Request().Context(), s.publisher, events.AnnouncementPosted, "", req); err != nil {
		return err
	}
	middleware.FromContext(c.Request().Context()).Info("Announcement queued", "length", len(req.Text))
	if c.Request().Header.Get("HX-Request") == "true" {
		return rendering.Page(c, http.StatusAccepted, pages.AnnouncementQueued(req.Text))
	}
	return c.JSON(http.StatusAccepted, map[string]string{"status": "queued"})
}
