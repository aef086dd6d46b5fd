package pages

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChat(t *testing.T) {
	var b strings.Builder
	require.NoError(t, Chat(ChatProps{WebSocketPath: "/ws", MaxTextLength: 500}).Render(&b))

	out := b.String()
	assert.True(t, strings.HasPrefix(out, "<!doctype html>"))
	assert.Contains(t, out, `data-ws-path="/ws"`)
	assert.Contains(t, out, `<title>Chat Hub</title>`)
	assert.Contains(t, out, `maxlength="500"`)
	assert.Contains(t, out, `<script src="/static/chat.js" defer></script>`)
}

func TestAnnounce(t *testing.T) {
	var b strings.Builder
	require.NoError(t, Announce().Render(&b))

	out := b.String()
	assert.Contains(t, out, `hx-post="/api/announcements"`)
	assert.Contains(t, out, `hx-target="#announce-result"`)
	assert.Contains(t, out, `name="text"`)
	assert.Contains(t, out, htmxSrc)

	b.Reset()
	require.NoError(t, AnnouncementQueued("<b>hi</b>").Render(&b))
	assert.Contains(t, b.String(), "&lt;b&gt;hi&lt;/b&gt;", "announcement text is escaped")
}
