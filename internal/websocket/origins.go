package websocket

import (
	"net/url"
	"strings"

	"github.com/coder/websocket"
)

// originPolicy decides which browser origins may open a connection.
// Requests without an Origin header, or from the server's own host, are always allowed.
type originPolicy struct {
	allowAll bool
	patterns []string
}

func newOriginPolicy(origins []string) originPolicy {
	var p originPolicy
	for _, origin := range origins {
		origin = strings.TrimSpace(origin)
		switch origin {
		case "":
			continue
		case "*":
			p.allowAll = true
		default:
			p.patterns = append(p.patterns, originHost(origin))
		}
	}
	return p
}

// originHost reduces "https://chat.example.com/" to "chat.example.com".
// Values without a scheme, including wildcards like "*.example.com", pass through.
func originHost(origin string) string {
	if u, err := url.Parse(origin); err == nil && u.Host != "" {
		return strings.ToLower(u.Host)
	}
	return strings.ToLower(strings.TrimSuffix(origin, "/"))
}

func (p originPolicy) acceptOptions() *websocket.AcceptOptions {
	if p.allowAll {
		return &websocket.AcceptOptions{InsecureSkipVerify: true}
	}
	return &websocket.AcceptOptions{OriginPatterns: p.patterns}
}
