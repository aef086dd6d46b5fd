package pages

import (
	"strconv"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

// ChatProps configures the browser chat page.
type ChatProps struct {
	// WebSocketPath is the upgrade endpoint the page connects to.
	WebSocketPath string
	MaxTextLength int
}

// Chat is the single-page browser client. It speaks the same JSON frames as any other client.
func Chat(props ChatProps) g.Node {
	return h.Doctype(
		h.HTML(
			h.Lang("en"),
			h.Head(
				h.Meta(h.Charset("utf-8")),
				h.Meta(h.Name("viewport"), h.Content("width=device-width, initial-scale=1")),
				h.TitleEl(g.Text("Chat Hub")),
				h.Link(h.Rel("stylesheet"), h.Href("/static/chat.css")),
				h.Script(h.Src("/static/chat.js"), h.Defer()),
			),
			h.Body(
				h.Main(
					h.ID("chat"),
					g.Attr("data-ws-path", props.WebSocketPath),
					h.Header(
						h.Class("chat-header"),
						h.H1(g.Text("Chat Hub")),
						h.Span(h.ID("status"), h.Class("status"), g.Text("connecting")),
					),
					h.Ul(h.ID("messages"), h.Class("messages")),
					g.El("form",
						h.ID("composer"),
						h.Class("composer"),
						h.Input(
							h.ID("username"),
							h.Type("text"),
							h.Placeholder("Your name"),
							h.MaxLength("64"),
							h.AutoComplete("nickname"),
							h.Required(),
						),
						h.Input(
							h.ID("text"),
							h.Type("text"),
							h.Placeholder("Say something"),
							h.MaxLength(strconv.Itoa(props.MaxTextLength)),
							h.AutoComplete("off"),
							h.Required(),
						),
						h.Button(h.Type("submit"), g.Text("Send")),
					),
				),
			),
		),
	)
}
