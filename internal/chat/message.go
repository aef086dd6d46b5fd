package chat

import (
	"encoding/json"
	"time"
)

// SystemSender is the sender id and display name carried by server-originated messages.
const SystemSender = "server"

// Message is a chat message as relayed to connected clients.
// It is a value type; a broadcast hands the same copy to every recipient.
type Message struct {
	// SenderID is the hub-assigned id of the originating client, or SystemSender.
	SenderID string `json:"sender_id"`
	// Username is the display name the sender chose for this message.
	Username  string    `json:"username"`
	Text      string    `json:"text"`
	Timestamp time.Time `json:"timestamp"`
}

// NewMessage builds a message stamped with the given time in UTC.
func NewMessage(senderID, username, text string, at time.Time) Message {
	return Message{
		SenderID:  senderID,
		Username:  username,
		Text:      text,
		Timestamp: at.UTC(),
	}
}

// SystemMessage builds a notice that originates from the server itself.
func SystemMessage(text string, at time.Time) Message {
	return NewMessage(SystemSender, SystemSender, text, at)
}

// IsSystem reports whether the message was produced by the server.
func (m Message) IsSystem() bool {
	return m.SenderID == SystemSender
}

// Encode returns the JSON wire form of the message.
func (m Message) Encode() ([]byte, error) {
	return json.Marshal(m)
}
