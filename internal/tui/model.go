// Package tui is a terminal chat client for the hub.
package tui

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/gorilla/websocket"

	"github.com/nfrund/chathub/internal/chat"
)

// Conn is the part of *websocket.Conn the client uses.
type Conn interface {
	ReadJSON(v any) error
	WriteJSON(v any) error
	Close() error
}

type incomingMsg chat.Message

type disconnectedMsg struct{ err error }

// Model is the bubbletea model for one chat session.
type Model struct {
	conn     Conn
	username string
	now      func() time.Time

	input    textinput.Model
	viewport viewport.Model
	lines    []string

	status       string
	disconnected bool
}

// New returns a model that sends as username over conn.
func New(conn Conn, username string, maxTextLength int) Model {
	ti := textinput.New()
	ti.Placeholder = "Say something..."
	ti.Prompt = "> "
	ti.CharLimit = maxTextLength
	ti.Focus()

	return Model{
		conn:     conn,
		username: username,
		now:      time.Now,
		input:    ti,
		viewport: viewport.New(80, 20),
		status:   "connected",
	}
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(textinput.Blink, listen(m.conn))
}

// listen waits for the next frame from the hub.
func listen(conn Conn) tea.Cmd {
	return func() tea.Msg {
		var msg chat.Message
		if err := conn.ReadJSON(&msg); err != nil {
			return disconnectedMsg{err: err}
		}
		return incomingMsg(msg)
	}
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd

	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.Type {
		case tea.KeyCtrlC, tea.KeyEsc:
			return m, tea.Quit
		case tea.KeyEnter:
			m.send()
			return m, nil
		}

	case tea.WindowSizeMsg:
		m.viewport.Width = msg.Width
		m.viewport.Height = max(msg.Height-4, 1)
		m.input.Width = max(msg.Width-4, 10)
		m.refresh()

	case incomingMsg:
		m.appendLine(formatMessage(chat.Message(msg), false))
		return m, listen(m.conn)

	case disconnectedMsg:
		m.disconnected = true
		m.status = describeClose(msg.err)
		return m, nil
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	cmds = append(cmds, cmd)
	m.viewport, cmd = m.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return m, tea.Batch(cmds...)
}

// send writes the input line to the hub and echoes it locally, since the hub
// never returns a client's own messages.
func (m *Model) send() {
	text := chat.Normalize(m.input.Value())
	if text == "" || m.disconnected {
		return
	}
	if err := m.conn.WriteJSON(chat.Inbound{Username: m.username, Text: text}); err != nil {
		m.status = errorStyle.Render(fmt.Sprintf("send failed: %v", err))
		return
	}
	m.appendLine(formatMessage(chat.NewMessage("", m.username, text, m.now()), true))
	m.input.Reset()
}

func (m *Model) appendLine(line string) {
	m.lines = append(m.lines, line)
	m.refresh()
}

func (m *Model) refresh() {
	m.viewport.SetContent(strings.Join(m.lines, "\n"))
	m.viewport.GotoBottom()
}

func (m Model) View() string {
	header := titleStyle.Render("chathub") + " " + statusStyle.Render(m.username+" · "+m.status)
	return fmt.Sprintf("%s\n%s\n%s", header, m.viewport.View(), m.input.View())
}

func formatMessage(msg chat.Message, self bool) string {
	ts := timeStyle.Render(msg.Timestamp.Local().Format("15:04"))
	if msg.IsSystem() {
		return ts + " " + systemStyle.Render("* "+msg.Text)
	}
	name := nameStyle.Render(msg.Username)
	if self {
		name = selfStyle.Render(msg.Username)
	}
	return fmt.Sprintf("%s %s: %s", ts, name, msg.Text)
}

func describeClose(err error) string {
	var ce *websocket.CloseError
	if errors.As(err, &ce) {
		if ce.Text != "" {
			return errorStyle.Render(fmt.Sprintf("disconnected: %s", ce.Text))
		}
		return errorStyle.Render("disconnected")
	}
	return errorStyle.Render(fmt.Sprintf("connection lost: %v", err))
}
