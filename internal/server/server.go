package server

import (
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/nfrund/chathub/internal/config"
	"github.com/nfrund/chathub/internal/hub"
	appmiddleware "github.com/nfrund/chathub/internal/middleware"
	"github.com/nfrund/chathub/internal/pubsub"
	"github.com/nfrund/chathub/internal/websocket"
)

// Server holds the dependencies for the HTTP server.
type Server struct {
	E         *echo.Echo
	cfg       *config.Config
	hub       *hub.Hub
	bridge    *websocket.Bridge
	publisher pubsub.Publisher
	registry  *prometheus.Registry
	startedAt time.Time
}

// Dependencies holds everything New needs to build the HTTP surface.
type Dependencies struct {
	Config    *config.Config
	Hub       *hub.Hub
	Bridge    *websocket.Bridge
	Publisher pubsub.Publisher
	// Registry collects hub and HTTP metrics and backs GET /metrics.
	Registry *prometheus.Registry
}

// New creates a Server with middleware and routes registered.
func New(deps Dependencies) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = &requestValidator{validator: validator.New()}
	setupErrorHandling(e)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestID())
	e.Use(appmiddleware.Logger)
	e.Use(appmiddleware.RequestLogger())
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "chathub",
		Registerer: deps.Registry,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics"
		},
	}))

	s := &Server{
		E:         e,
		cfg:       deps.Config,
		hub:       deps.Hub,
		bridge:    deps.Bridge,
		publisher: deps.Publisher,
		registry:  deps.Registry,
		startedAt: time.Now(),
	}
	s.RegisterRoutes()
	return s
}

// requestValidator adapts go-playground/validator to echo.Validator.
type requestValidator struct {
	validator *validator.Validate
}

func (v *requestValidator) Validate(i any) error {
	return v.validator.Struct(i)
}
