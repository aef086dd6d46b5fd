package rendering

import (
	"bytes"
	"fmt"

	"github.com/labstack/echo/v4"
	g "maragu.dev/gomponents"
)

// Component renders a gomponents node to bytes, for fragments sent outside an HTTP response.
func Component(node g.Node) ([]byte, error) {
	var buf bytes.Buffer
	if err := node.Render(&buf); err != nil {
		return nil, fmt.Errorf("render component: %w", err)
	}
	return buf.Bytes(), nil
}

// Page renders node as a full HTML response. Rendering is buffered so a
// failure still produces a clean error response.
func Page(c echo.Context, status int, node g.Node) error {
	body, err := Component(node)
	if err != nil {
		return err
	}
	return c.HTMLBlob(status, body)
}
