package websocket

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/labstack/echo/v4"
	"github.com/nfrund/chathub/internal/chat"
	"github.com/nfrund/chathub/internal/hub"
	"github.com/nfrund/chathub/internal/metrics"
	"github.com/nfrund/chathub/internal/pubsub"
)

// Default connection tuning, used when Options leaves a field zero.
const (
	// Time allowed to write a message or ping to the peer.
	writeWait = 10 * time.Second
	// Send pings to peer with this period.
	pingPeriod = 54 * time.Second

	defaultMaxMessageSize = 4096
	defaultQueueSize      = 100
	defaultMaxTextLength  = 1000
)

// Options tunes per-connection behaviour.
type Options struct {
	// AllowedOrigins lists origins permitted to upgrade; "*" allows any.
	AllowedOrigins []string
	MaxMessageSize int64
	MaxTextLength  int
	QueueSize      int
	// RateLimitBurst frames are allowed per RateLimitInterval for each connection.
	RateLimitBurst    int
	RateLimitInterval time.Duration
	WriteTimeout      time.Duration
	PingInterval      time.Duration
}

func (o Options) withDefaults() Options {
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = defaultMaxMessageSize
	}
	if o.MaxTextLength <= 0 {
		o.MaxTextLength = defaultMaxTextLength
	}
	if o.QueueSize <= 0 {
		o.QueueSize = defaultQueueSize
	}
	if o.RateLimitBurst <= 0 {
		o.RateLimitBurst = 5
	}
	if o.RateLimitInterval <= 0 {
		o.RateLimitInterval = time.Second
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = writeWait
	}
	if o.PingInterval <= 0 {
		o.PingInterval = pingPeriod
	}
	if len(o.AllowedOrigins) == 0 {
		o.AllowedOrigins = []string{"*"}
	}
	return o
}

// BridgeDependencies holds what a Bridge needs to serve connections.
type BridgeDependencies struct {
	Hub *hub.Hub
	// Publisher receives client lifecycle events. Optional.
	Publisher pubsub.Publisher
	Metrics   *metrics.Metrics
	Options   Options
}

// Bridge upgrades HTTP requests to WebSocket sessions attached to the hub.
type Bridge struct {
	hub       *hub.Hub
	publisher pubsub.Publisher
	metrics   *metrics.Metrics
	decoder   *chat.Decoder
	opts      Options
	origins   originPolicy
	now       func() time.Time

	// ctx is the parent of every session; Shutdown cancels it.
	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	closed   bool
	sessions sync.WaitGroup
}

// NewBridge initializes a Bridge ready to accept connections.
func NewBridge(deps BridgeDependencies) *Bridge {
	opts := deps.Options.withDefaults()
	ctx, cancel := context.WithCancel(context.Background())
	return &Bridge{
		hub:       deps.Hub,
		publisher: deps.Publisher,
		metrics:   deps.Metrics,
		decoder:   chat.NewDecoder(opts.MaxTextLength),
		opts:      opts,
		origins:   newOriginPolicy(opts.AllowedOrigins),
		now:       time.Now,
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Handler returns the echo handler for the upgrade endpoint. It blocks for the
// lifetime of the connection.
func (b *Bridge) Handler() echo.HandlerFunc {
	return func(c echo.Context) error {
		conn, err := websocket.Accept(c.Response(), c.Request(), b.origins.acceptOptions())
		if err != nil {
			// Accept has already written the error response.
			slog.Warn("WebSocket upgrade failed", "remote_addr", c.RealIP(), "origin", c.Request().Header.Get("Origin"), "error", err)
			return nil
		}
		conn.SetReadLimit(b.opts.MaxMessageSize)

		b.Serve(conn, c.RealIP())
		return nil
	}
}

// Serve runs a session on an already upgraded connection until it ends.
func (b *Bridge) Serve(conn Conn, remoteAddr string) {
	if !b.track() {
		conn.Close(websocket.StatusGoingAway, "server shutting down")
		return
	}
	defer b.sessions.Done()

	newSession(b, conn, remoteAddr).Run(b.ctx)
}

func (b *Bridge) track() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return false
	}
	b.sessions.Add(1)
	return true
}

// Shutdown stops accepting sessions, cancels the running ones and waits for
// them to finish or for ctx to expire.
func (b *Bridge) Shutdown(ctx context.Context) error {
	b.mu.Lock()
	b.closed = true
	b.mu.Unlock()
	b.cancel()

	done := make(chan struct{})
	go func() {
		b.sessions.Wait()
		close(done)
	}()

	select {
	case <-done:
		slog.Info("WebSocket bridge stopped")
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
