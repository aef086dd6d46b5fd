package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Drop reasons recorded on MessagesDropped.
const (
	ReasonQueueOverflow = "queue_overflow"
	ReasonRateLimited   = "rate_limited"
	ReasonMalformed     = "malformed"
)

// Metrics groups the hub's Prometheus collectors. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	ConnectedClients  prometheus.Gauge
	Sessions          prometheus.Counter
	MessagesReceived  prometheus.Counter
	MessagesDelivered prometheus.Counter
	MessagesDropped   *prometheus.CounterVec
}

// New registers the collectors with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		ConnectedClients: factory.NewGauge(prometheus.GaugeOpts{
			Name: "chathub_connected_clients",
			Help: "Number of clients currently registered with the hub",
		}),
		Sessions: factory.NewCounter(prometheus.CounterOpts{
			Name: "chathub_sessions_total",
			Help: "Total WebSocket sessions accepted",
		}),
		MessagesReceived: factory.NewCounter(prometheus.CounterOpts{
			Name: "chathub_messages_received_total",
			Help: "Total valid chat messages received from clients",
		}),
		MessagesDelivered: factory.NewCounter(prometheus.CounterOpts{
			Name: "chathub_messages_delivered_total",
			Help: "Total messages handed to client queues",
		}),
		MessagesDropped: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "chathub_messages_dropped_total",
				Help: "Total messages dropped",
			},
			[]string{"reason"}, // queue_overflow, rate_limited, malformed
		),
	}
}

func (m *Metrics) SetConnected(n int) {
	if m == nil {
		return
	}
	m.ConnectedClients.Set(float64(n))
}

func (m *Metrics) SessionStarted() {
	if m == nil {
		return
	}
	m.Sessions.Inc()
}

func (m *Metrics) Received() {
	if m == nil {
		return
	}
	m.MessagesReceived.Inc()
}

func (m *Metrics) Delivered(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.MessagesDelivered.Add(float64(n))
}

func (m *Metrics) Dropped(reason string) {
	if m == nil {
		return
	}
	m.MessagesDropped.WithLabelValues(reason).Inc()
}
