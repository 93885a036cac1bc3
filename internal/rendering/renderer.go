// Package rendering adapts gomponents nodes to Echo's renderer interface.
package rendering

import (
	"bytes"
	"fmt"
	"io"

	"github.com/labstack/echo/v4"
	"maragu.dev/gomponents"
)

// Renderer implements echo.Renderer for gomponents nodes. A node that fails
// to render writes nothing.
type Renderer struct{}

var _ echo.Renderer = (*Renderer)(nil)

// NewRenderer creates a new Renderer.
func NewRenderer() *Renderer {
	return &Renderer{}
}

// Render implements echo.Renderer. The node is passed as data; name is
// ignored.
func (r *Renderer) Render(w io.Writer, name string, data any, c echo.Context) error {
	node, ok := data.(gomponents.Node)
	if !ok {
		return fmt.Errorf("unsupported component type %T: want gomponents.Node", data)
	}

	var buf bytes.Buffer
	if err := node.Render(&buf); err != nil {
		return fmt.Errorf("render component: %w", err)
	}
	_, err := buf.WriteTo(w)
	return err
}
