package hub

import (
	"errors"
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/nfrund/chathub/internal/chat"
	"github.com/nfrund/chathub/internal/metrics"
)

// ClientID uniquely identifies a registered client for the lifetime of the process.
type ClientID string

// ErrUnknownClient is returned when a broadcast names a sender that is not registered.
var ErrUnknownClient = errors.New("client is not registered")

// Sink is the per-client delivery endpoint the hub writes to.
// Deliver and Close must not block; *Queue is the standard implementation.
type Sink interface {
	Deliver(msg chat.Message) error
	Close()
}

// Hub maintains the set of connected clients and fans messages out to them.
// All methods are safe for concurrent use.
type Hub struct {
	mu      sync.RWMutex
	clients map[ClientID]Sink

	logger  *slog.Logger
	metrics *metrics.Metrics
}

// Option configures a Hub.
type Option func(*Hub)

// WithMetrics records registry size and delivery counts on m.
func WithMetrics(m *metrics.Metrics) Option {
	return func(h *Hub) { h.metrics = m }
}

// WithLogger overrides the default slog logger.
func WithLogger(l *slog.Logger) Option {
	return func(h *Hub) { h.logger = l }
}

// New creates an empty hub.
func New(opts ...Option) *Hub {
	h := &Hub{
		clients: make(map[ClientID]Sink),
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Register adds sink under a freshly generated id and returns that id.
// sink must not be nil.
func (h *Hub) Register(sink Sink) ClientID {
	id := ClientID(uuid.NewString())

	h.mu.Lock()
	h.clients[id] = sink
	total := len(h.clients)
	h.mu.Unlock()

	h.metrics.SetConnected(total)
	h.logger.Info("Client registered", "client_id", id, "total_clients", total)
	return id
}

// Unregister removes id and closes its sink. It reports whether id was registered;
// unregistering an unknown or already removed id is a no-op.
// Once Unregister returns, no further message reaches the sink.
func (h *Hub) Unregister(id ClientID) bool {
	h.mu.Lock()
	sink, ok := h.clients[id]
	if ok {
		delete(h.clients, id)
		sink.Close()
	}
	total := len(h.clients)
	h.mu.Unlock()

	if !ok {
		return false
	}
	h.metrics.SetConnected(total)
	h.logger.Info("Client unregistered", "client_id", id, "total_clients", total)
	return true
}

// Broadcast delivers msg to every registered client except exclude and returns
// the number of clients it reached. An empty exclude targets everyone.
// A non-empty exclude that is not registered yields ErrUnknownClient and
// delivers nothing. Clients whose sink rejects the message are unregistered.
func (h *Hub) Broadcast(msg chat.Message, exclude ClientID) (int, error) {
	targets, err := h.snapshot(exclude)
	if err != nil {
		return 0, err
	}

	delivered := 0
	var failed []ClientID
	for _, t := range targets {
		if err := t.sink.Deliver(msg); err != nil {
			h.logger.Warn("Delivery failed", "client_id", t.id, "error", err)
			failed = append(failed, t.id)
			continue
		}
		delivered++
	}

	for _, id := range failed {
		h.Unregister(id)
	}

	h.metrics.Delivered(delivered)
	h.logger.Debug("Broadcast complete", "sender_id", msg.SenderID, "recipient_count", delivered)
	return delivered, nil
}

type target struct {
	id   ClientID
	sink Sink
}

// snapshot copies the recipients under the read lock so delivery runs unlocked.
func (h *Hub) snapshot(exclude ClientID) ([]target, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if exclude != "" {
		if _, ok := h.clients[exclude]; !ok {
			return nil, ErrUnknownClient
		}
	}

	targets := make([]target, 0, len(h.clients))
	for id, sink := range h.clients {
		if id == exclude {
			continue
		}
		targets = append(targets, target{id: id, sink: sink})
	}
	return targets, nil
}

// Len returns the number of registered clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Contains reports whether id is registered.
func (h *Hub) Contains(id ClientID) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[id]
	return ok
}

// IDs returns the registered client ids in sorted order.
func (h *Hub) IDs() []ClientID {
	h.mu.RLock()
	ids := make([]ClientID, 0, len(h.clients))
	for id := range h.clients {
		ids = append(ids, id)
	}
	h.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	return ids
}

// Close unregisters every client, closing their sinks.
func (h *Hub) Close() {
	h.mu.Lock()
	clients := h.clients
	h.clients = make(map[ClientID]Sink)
	for _, sink := range clients {
		sink.Close()
	}
	h.mu.Unlock()

	h.metrics.SetConnected(0)
	h.logger.Info("Hub closed", "released_clients", len(clients))
}
