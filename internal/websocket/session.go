package websocket

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/coder/websocket"
	"github.com/nfrund/chathub/internal/chat"
	"github.com/nfrund/chathub/internal/events"
	"github.com/nfrund/chathub/internal/hub"
	"github.com/nfrund/chathub/internal/metrics"
	"github.com/nfrund/chathub/internal/pubsub"
	"golang.org/x/time/rate"
)

// Conn is the subset of *websocket.Conn a session uses.
type Conn interface {
	Read(ctx context.Context) (websocket.MessageType, []byte, error)
	Write(ctx context.Context, typ websocket.MessageType, p []byte) error
	Ping(ctx context.Context) error
	Close(code websocket.StatusCode, reason string) error
}

// Session is one connected client: a read loop feeding the hub and a write
// loop draining the client's queue. When either loop ends the client is
// unregistered first and the connection is closed after.
type Session struct {
	bridge     *Bridge
	conn       Conn
	remoteAddr string
	queue      *hub.Queue
	limiter    *rate.Limiter
	logger     *slog.Logger
	id         hub.ClientID

	// dropLogger is read by other sessions' broadcasts.
	dropLogger atomic.Pointer[slog.Logger]
}

func newSession(b *Bridge, conn Conn, remoteAddr string) *Session {
	logger := slog.Default().With("remote_addr", remoteAddr)
	every := rate.Every(b.opts.RateLimitInterval / time.Duration(b.opts.RateLimitBurst))

	s := &Session{
		bridge:     b,
		conn:       conn,
		remoteAddr: remoteAddr,
		limiter:    rate.NewLimiter(every, b.opts.RateLimitBurst),
		logger:     logger,
	}
	s.dropLogger.Store(logger)
	s.queue = hub.NewQueue(b.opts.QueueSize, s.onDrop)
	return s
}

func (s *Session) onDrop(dropped chat.Message) {
	s.bridge.metrics.Dropped(metrics.ReasonQueueOverflow)
	s.dropLogger.Load().Warn("Client queue full, dropped oldest message", "sender_id", dropped.SenderID)
}

// ID returns the hub id assigned when the session started.
func (s *Session) ID() hub.ClientID {
	return s.id
}

// Run registers the client and blocks until the session ends or ctx is canceled.
func (s *Session) Run(ctx context.Context) {
	s.id = s.bridge.hub.Register(s.queue)
	s.logger = s.logger.With("client_id", s.id)
	s.dropLogger.Store(s.logger)
	s.bridge.metrics.SessionStarted()
	s.logger.Info("WebSocket session started")
	s.publishPresence(events.ClientConnected)

	readErr := make(chan error, 1)
	go func() {
		readErr <- s.readLoop()
	}()
	err := s.writeLoop(ctx, readErr)

	// Leave the hub before the close handshake, which waits on the peer.
	s.bridge.hub.Unregister(s.id)
	s.publishPresence(events.ClientDisconnected)
	s.close(ctx, err)
	s.logEnd(err)
}

// readLoop ends when the connection fails or is closed after the session ends.
// Frames read after that are rejected by the hub.
func (s *Session) readLoop() error {
	for {
		typ, data, err := s.conn.Read(context.Background())
		if err != nil {
			return err
		}
		if err := s.handleFrame(typ, data); err != nil {
			return err
		}
	}
}

// handleFrame broadcasts one inbound frame. Bad or excess frames are dropped
// without ending the session; only losing hub membership is fatal.
func (s *Session) handleFrame(typ websocket.MessageType, data []byte) error {
	if typ != websocket.MessageText {
		s.bridge.metrics.Dropped(metrics.ReasonMalformed)
		s.logger.Warn("Dropping non-text frame", "type", typ.String())
		return nil
	}
	if !s.limiter.Allow() {
		s.bridge.metrics.Dropped(metrics.ReasonRateLimited)
		s.logger.Warn("Rate limit exceeded, dropping message")
		return nil
	}

	in, err := s.bridge.decoder.Decode(data)
	if err != nil {
		s.bridge.metrics.Dropped(metrics.ReasonMalformed)
		s.logger.Warn("Dropping malformed frame", "error", err)
		return nil
	}
	s.bridge.metrics.Received()

	msg := chat.NewMessage(string(s.id), in.Username, in.Text, s.bridge.now())
	n, err := s.bridge.hub.Broadcast(msg, s.id)
	if err != nil {
		return fmt.Errorf("broadcast: %w", err)
	}
	s.logger.Debug("Message broadcast", "username", in.Username, "recipient_count", n)
	return nil
}

// writeLoop returns the error that ends the session, including the read
// loop's.
func (s *Session) writeLoop(ctx context.Context, readErr <-chan error) error {
	ticker := time.NewTicker(s.bridge.opts.PingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-readErr:
			return err
		case <-s.queue.Done():
			return hub.ErrQueueClosed
		case <-ticker.C:
			if err := s.ping(ctx); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		case <-s.queue.Ready():
			for {
				msg, ok := s.queue.Pop()
				if !ok {
					break
				}
				if err := s.write(ctx, msg); err != nil {
					return err
				}
			}
		}
	}
}

func (s *Session) write(ctx context.Context, msg chat.Message) error {
	payload, err := msg.Encode()
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}
	wctx, cancel := context.WithTimeout(ctx, s.bridge.opts.WriteTimeout)
	defer cancel()
	return s.conn.Write(wctx, websocket.MessageText, payload)
}

func (s *Session) ping(ctx context.Context) error {
	pctx, cancel := context.WithTimeout(ctx, s.bridge.opts.WriteTimeout)
	defer cancel()
	return s.conn.Ping(pctx)
}

func (s *Session) publishPresence(event pubsub.Event[events.ClientPresence]) {
	if s.bridge.publisher == nil {
		return
	}
	payload := events.ClientPresence{
		ClientID:   string(s.id),
		RemoteAddr: s.remoteAddr,
		Online:     s.bridge.hub.Len(),
	}
	// The bridge context may already be canceled during shutdown.
	if err := pubsub.Publish(context.Background(), s.bridge.publisher, event, string(s.id), payload); err != nil {
		s.logger.Error("Failed to publish presence event", "topic", event.Name(), "error", err)
	}
}

// close sends the close frame matching why the session ended. Once ctx is
// done the handshake is left to finish in the background; the library bounds
// it with its own timeout.
func (s *Session) close(ctx context.Context, err error) {
	code, reason := closeStatus(err)
	done := make(chan struct{})
	go func() {
		defer close(done)
		if cerr := s.conn.Close(code, reason); cerr != nil {
			s.logger.Debug("Close handshake incomplete", "error", cerr)
		}
	}()
	select {
	case <-done:
	case <-ctx.Done():
	}
}

// closeStatus picks the close frame sent to the peer for the error that ended the session.
func closeStatus(err error) (websocket.StatusCode, string) {
	switch {
	case websocket.CloseStatus(err) != -1:
		return websocket.StatusNormalClosure, ""
	case errors.Is(err, context.Canceled):
		return websocket.StatusGoingAway, "server shutting down"
	case errors.Is(err, hub.ErrQueueClosed), errors.Is(err, hub.ErrUnknownClient):
		return websocket.StatusGoingAway, "removed from hub"
	default:
		return websocket.StatusInternalError, "connection error"
	}
}

func (s *Session) logEnd(err error) {
	status := websocket.CloseStatus(err)
	switch {
	case status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway:
		s.logger.Info("WebSocket closed normally by client")
	case errors.Is(err, context.Canceled), errors.Is(err, io.EOF):
		s.logger.Info("WebSocket session ended", "reason", err)
	default:
		s.logger.Warn("WebSocket session ended with error", "error", err)
	}
}
