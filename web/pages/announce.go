package pages

import (
	g "maragu.dev/gomponents"
	hx "maragu.dev/gomponents-htmx"
	h "maragu.dev/gomponents/html"
)

const htmxSrc = "https://unpkg.com/htmx.org@2.0.4"

// Announce is the operator page for posting a notice to every connected client.
func Announce() g.Node {
	return h.Doctype(
		h.HTML(
			h.Lang("en"),
			h.Head(
				h.Meta(h.Charset("utf-8")),
				h.TitleEl(g.Text("Chat Hub · Announce")),
				h.Link(h.Rel("stylesheet"), h.Href("/static/chat.css")),
				h.Script(h.Src(htmxSrc)),
			),
			h.Body(
				h.Main(
					h.ID("announce"),
					h.H1(g.Text("Announce")),
					g.El("form",
						h.Class("composer"),
						hx.Post("/api/announcements"),
						hx.Target("#announce-result"),
						hx.Swap("innerHTML"),
						g.Attr("hx-on::after-request", "if(event.detail.successful) this.reset()"),
						h.Input(
							h.Name("text"),
							h.Type("text"),
							h.Placeholder("Message for everyone"),
							h.MaxLength("1000"),
							h.Required(),
						),
						h.Button(h.Type("submit"), g.Text("Send")),
					),
					h.Div(h.ID("announce-result")),
				),
			),
		),
	)
}

// AnnouncementQueued is the fragment swapped in after a successful post.
func AnnouncementQueued(text string) g.Node {
	return h.P(h.Class("announce-ok"), g.Text("Queued: "), h.Em(g.Text(text)))
}
