package tui

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"
)

// Run dials the hub at url and runs the interactive client until the user quits.
func Run(ctx context.Context, url, username string, maxTextLength int) error {
	conn, _, err := websocket.DefaultDialer.DialContext(ctx, url, nil)
	if err != nil {
		return fmt.Errorf("dial %s: %w", url, err)
	}
	defer conn.Close()

	p := tea.NewProgram(New(conn, username, maxTextLength), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("run client: %w", err)
	}
	if err := goodbye(conn); err != nil {
		slog.Debug("Hub connection already gone", "error", err)
	}
	return nil
}

type frameWriter interface {
	WriteMessage(messageType int, data []byte) error
}

// goodbye sends a normal close frame so the hub drops the client at once.
func goodbye(conn frameWriter) error {
	payload := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteMessage(websocket.CloseMessage, payload); err != nil {
		return fmt.Errorf("send close frame: %w", err)
	}
	return nil
}
