package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nfrund/chathub/internal/chat"
	"github.com/nfrund/chathub/internal/config"
)

func TestBridgeOptions(t *testing.T) {
	cfg := config.Default()
	cfg.QueueSize = 7
	cfg.AllowedOrigins = []string{"https://chat.example.com"}

	opts := BridgeOptions(cfg)
	assert.Equal(t, 7, opts.QueueSize)
	assert.Equal(t, cfg.MaxMessageSize, opts.MaxMessageSize)
	assert.Equal(t, cfg.PingInterval, opts.PingInterval)
	assert.Equal(t, []string{"https://chat.example.com"}, opts.AllowedOrigins)
}

func TestApp_Run(t *testing.T) {
	cfg := config.Default()
	cfg.Addr = "127.0.0.1:0"
	cfg.AnnouncePresence = true
	cfg.ShutdownTimeout = 2 * time.Second

	a, err := New(cfg)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	runErr := make(chan error, 1)
	go func() { runErr <- a.Run(ctx) }()

	require.Eventually(t, func() bool { return a.Server().E.ListenerAddr() != nil }, 2*time.Second, 5*time.Millisecond)
	addr := a.Server().E.ListenerAddr().String()

	resp, err := http.Get(fmt.Sprintf("http://%s/health", addr))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	wsURL := fmt.Sprintf("ws://%s/ws", addr)
	alice, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer alice.Close()

	var stats struct {
		ConnectedClients int `json:"connected_clients"`
	}
	require.Eventually(t, func() bool {
		resp, err := http.Get(fmt.Sprintf("http://%s/api/stats", addr))
		if err != nil {
			return false
		}
		defer resp.Body.Close()
		return json.NewDecoder(resp.Body).Decode(&stats) == nil && stats.ConnectedClients == 1
	}, 2*time.Second, 10*time.Millisecond)

	bob, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer bob.Close()

	require.NoError(t, bob.WriteJSON(chat.Inbound{Username: "bob", Text: "hi alice"}))

	// Alice hears bob's message and the join notice, in either order.
	var chatMsgs, notices []chat.Message
	require.NoError(t, alice.SetReadDeadline(time.Now().Add(2*time.Second)))
	for i := 0; i < 2; i++ {
		var msg chat.Message
		require.NoError(t, alice.ReadJSON(&msg))
		if msg.IsSystem() {
			notices = append(notices, msg)
		} else {
			chatMsgs = append(chatMsgs, msg)
		}
	}
	require.Len(t, chatMsgs, 1)
	assert.Equal(t, "bob", chatMsgs[0].Username)
	assert.Equal(t, "hi alice", chatMsgs[0].Text)
	require.Len(t, notices, 1)
	assert.Contains(t, notices[0].Text, "joined")

	cancel()
	select {
	case err := <-runErr:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("Run did not return after cancel")
	}

	require.NoError(t, alice.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = alice.ReadMessage()
	assert.True(t, websocket.IsCloseError(err, websocket.CloseGoingAway), "expected going-away close, got %v", err)
}
