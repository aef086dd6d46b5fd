package events

import "github.com/nfrund/chathub/internal/pubsub"

// ClientPresence describes a client joining or leaving the hub.
type ClientPresence struct {
	ClientID   string `json:"client_id"`
	RemoteAddr string `json:"remote_addr"`
	// Online is the number of registered clients after the change.
	Online int `json:"online"`
}

// Announcement is an operator notice to be broadcast to every client.
type Announcement struct {
	Text string `json:"text" form:"text" validate:"required,max=1000"`
}

var (
	ClientConnected = pubsub.NewEvent[ClientPresence](
		"chat.client.connected",
		"A WebSocket client registered with the hub",
	)
	ClientDisconnected = pubsub.NewEvent[ClientPresence](
		"chat.client.disconnected",
		"A WebSocket client left the hub",
	)
	AnnouncementPosted = pubsub.NewEvent[Announcement](
		"chat.announcements",
		"An operator announcement for all clients",
	)
)

// Descriptor names an event without its payload type.
type Descriptor struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Payload     string `json:"payload"`
}

func describe[T any](e pubsub.Event[T], payload string) Descriptor {
	return Descriptor{Name: e.Name(), Description: e.Description(), Payload: payload}
}

// Catalog lists every event published on the bus.
func Catalog() []Descriptor {
	return []Descriptor{
		describe(ClientConnected, "ClientPresence"),
		describe(ClientDisconnected, "ClientPresence"),
		describe(AnnouncementPosted, "Announcement"),
	}
}
