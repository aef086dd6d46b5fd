package announcer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/nfrund/chathub/internal/chat"
	"github.com/nfrund/chathub/internal/events"
	"github.com/nfrund/chathub/internal/hub"
	"github.com/nfrund/chathub/internal/pubsub"
)

// Broadcaster is the slice of the hub the announcer needs.
type Broadcaster interface {
	Broadcast(msg chat.Message, exclude hub.ClientID) (int, error)
}

// Dependencies holds what the Announcer needs to run.
type Dependencies struct {
	Subscriber pubsub.Subscriber
	Hub        Broadcaster
	// AnnouncePresence enables join and leave notices.
	AnnouncePresence bool
}

// Announcer turns bus events into system messages on the hub.
type Announcer struct {
	subscriber pubsub.Subscriber
	hub        Broadcaster
	presence   bool
	now        func() time.Time
}

func New(deps Dependencies) *Announcer {
	return &Announcer{
		subscriber: deps.Subscriber,
		hub:        deps.Hub,
		presence:   deps.AnnouncePresence,
		now:        time.Now,
	}
}

// Start subscribes to the announcement topic and, when presence notices are
// enabled, to client lifecycle topics. Subscriptions end when ctx is canceled.
func (a *Announcer) Start(ctx context.Context) error {
	if err := pubsub.Subscribe(ctx, a.subscriber, events.AnnouncementPosted, a.handleAnnouncement); err != nil {
		return fmt.Errorf("subscribe to %s: %w", events.AnnouncementPosted.Name(), err)
	}
	if !a.presence {
		slog.Info("Announcer started", "presence", false)
		return nil
	}

	if err := pubsub.Subscribe(ctx, a.subscriber, events.ClientConnected, a.handleConnected); err != nil {
		return fmt.Errorf("subscribe to %s: %w", events.ClientConnected.Name(), err)
	}
	if err := pubsub.Subscribe(ctx, a.subscriber, events.ClientDisconnected, a.handleDisconnected); err != nil {
		return fmt.Errorf("subscribe to %s: %w", events.ClientDisconnected.Name(), err)
	}
	slog.Info("Announcer started", "presence", true)
	return nil
}

func (a *Announcer) handleAnnouncement(ctx context.Context, ann events.Announcement) error {
	text := chat.Normalize(ann.Text)
	if text == "" {
		return errors.New("empty announcement")
	}
	n, err := a.hub.Broadcast(chat.SystemMessage(text, a.now()), "")
	if err != nil {
		return err
	}
	slog.Info("Announcement broadcast", "recipient_count", n)
	return nil
}

func (a *Announcer) handleConnected(ctx context.Context, ev events.ClientPresence) error {
	text := fmt.Sprintf("A new client joined (%d online)", ev.Online)
	_, err := a.hub.Broadcast(chat.SystemMessage(text, a.now()), hub.ClientID(ev.ClientID))
	if errors.Is(err, hub.ErrUnknownClient) {
		// The client left before the notice went out.
		slog.Debug("Skipping join notice for departed client", "client_id", ev.ClientID)
		return nil
	}
	return err
}

func (a *Announcer) handleDisconnected(ctx context.Context, ev events.ClientPresence) error {
	text := fmt.Sprintf("A client left (%d online)", ev.Online)
	_, err := a.hub.Broadcast(chat.SystemMessage(text, a.now()), "")
	return err
}
