package pubsub

import (
	"context"
	"log/slog"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// WatermillBridge implements Publisher and Subscriber on watermill's in-memory GoChannel.
type WatermillBridge struct {
	channel *gochannel.GoChannel
	tracer  trace.Tracer
}

// BridgeOption configures a WatermillBridge.
type BridgeOption func(*WatermillBridge)

// WithTracer records a span for every publish and every handled message.
func WithTracer(tracer trace.Tracer) BridgeOption {
	return func(wb *WatermillBridge) {
		wb.tracer = tracer
	}
}

const (
	metaKeyClientID = "client_id"
	metaKeyTopic    = "topic"
)

// reservedMetadata is bridge bookkeeping hidden from handlers.
var reservedMetadata = map[string]bool{
	metaKeyClientID: true,
	metaKeyTopic:    true,
	"traceparent":   true,
	"tracestate":    true,
}

// NewWatermillBridge creates an in-process bus. Messages published to a topic
// with no subscribers are discarded.
func NewWatermillBridge(opts ...BridgeOption) *WatermillBridge {
	logger := watermill.NewStdLogger(false, false)
	wb := &WatermillBridge{
		channel: gochannel.NewGoChannel(
			gochannel.Config{OutputChannelBuffer: 64},
			logger,
		),
		tracer: noop.NewTracerProvider().Tracer(tracerName),
	}
	for _, opt := range opts {
		opt(wb)
	}
	return wb
}

func mapToWatermillMessage(msg Message) *message.Message {
	wmMsg := message.NewMessage(watermill.NewUUID(), msg.Payload)
	for k, v := range msg.Metadata {
		wmMsg.Metadata.Set(k, v)
	}
	wmMsg.Metadata.Set(metaKeyTopic, msg.Topic)
	if msg.ClientID != "" {
		wmMsg.Metadata.Set(metaKeyClientID, msg.ClientID)
	}
	return wmMsg
}

func mapToPubSubMessage(wmMsg *message.Message) Message {
	metadata := make(map[string]string, len(wmMsg.Metadata))
	for k, v := range wmMsg.Metadata {
		if !reservedMetadata[k] {
			metadata[k] = v
		}
	}
	return Message{
		Topic:    wmMsg.Metadata.Get(metaKeyTopic),
		ClientID: wmMsg.Metadata.Get(metaKeyClientID),
		Payload:  wmMsg.Payload,
		Metadata: metadata,
	}
}

// Publish implements the Publisher interface.
func (wb *WatermillBridge) Publish(ctx context.Context, msg Message) error {
	wmMsg := mapToWatermillMessage(msg)
	span := wb.startPublishSpan(ctx, msg.Topic, wmMsg)
	defer span.End()

	if err := wb.channel.Publish(msg.Topic, wmMsg); err != nil {
		recordError(span, err)
		return err
	}
	return nil
}

// Subscribe implements the Subscriber interface. It returns once the
// subscription is active; handlers run on a background goroutine.
func (wb *WatermillBridge) Subscribe(ctx context.Context, topic string, handler Handler) error {
	messages, err := wb.channel.Subscribe(ctx, topic)
	if err != nil {
		return err
	}

	go func() {
		for wmMsg := range messages {
			msgCtx, span := wb.startProcessSpan(ctx, topic, wmMsg)
			if err := handler(msgCtx, mapToPubSubMessage(wmMsg)); err != nil {
				// GoChannel redelivers nacked messages forever, so failures are logged and acked.
				slog.Error("Failed to handle message", "topic", topic, "msg_id", wmMsg.UUID, "error", err)
				recordError(span, err)
			}
			span.End()
			wmMsg.Ack()
		}
		slog.Debug("Subscription message loop ended", "topic", topic)
	}()

	return nil
}

// Close shuts the bus down and ends every subscription. It is safe to call more than once.
func (wb *WatermillBridge) Close() error {
	return wb.channel.Close()
}
