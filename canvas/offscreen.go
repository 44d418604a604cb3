package canvas

import (
	"fmt"
	"image"
	"image/png"
	"io"

	"github.com/chrisuehlinger/canvashim/events"
	"github.com/chrisuehlinger/canvashim/render"
)

// ContextID2D is the only context type GetContext supports.
const ContextID2D = "2d"

// OffscreenCanvas is a width x height drawing surface. It owns its native
// surface and must be disposed.
type OffscreenCanvas struct {
	env     *Env
	width   int
	height  int
	surface *render.Surface
	ctx     *Context2D
}

// NewOffscreenCanvas creates a transparent canvas.
func (e *Env) NewOffscreenCanvas(width, height int) (*OffscreenCanvas, error) {
	if err := checkSize("canvas", width, height); err != nil {
		return nil, err
	}
	surface, err := e.engine.MakeOffscreen(width, height)
	if err != nil {
		return nil, fmt.Errorf("canvas: %w", err)
	}
	c := &OffscreenCanvas{env: e, width: width, height: height, surface: surface}
	e.canvases = append(e.canvases, c)
	return c, nil
}

// Width returns the canvas width.
func (c *OffscreenCanvas) Width() int { return c.width }

// Height returns the canvas height.
func (c *OffscreenCanvas) Height() int { return c.height }

// GetContext returns the 2D context for "2d" and nil for any other id. The
// same context is returned on every call.
func (c *OffscreenCanvas) GetContext(id string) *Context2D {
	if id != ContextID2D {
		return nil
	}
	if c.ctx == nil {
		c.ctx = newContext2D(c)
	}
	return c.ctx
}

// Dispose releases the native surface and drops the canvas from its Env.
// Later calls do nothing.
func (c *OffscreenCanvas) Dispose() {
	if c.Disposed() {
		return
	}
	c.surface.Dispose()
	c.env.forget(c)
}

// Disposed reports whether Dispose has been called.
func (c *OffscreenCanvas) Disposed() bool {
	return c.surface.Released()
}

// snapshot copies the current pixels into a transient image the caller
// must release.
func (c *OffscreenCanvas) snapshot() (*render.Image, error) {
	if c.Disposed() {
		return nil, invalidArgf("canvas is disposed")
	}
	return c.surface.MakeImageSnapshot(), nil
}

// ToImage returns a copy of the canvas pixels.
func (c *OffscreenCanvas) ToImage() (*image.RGBA, error) {
	if c.Disposed() {
		return nil, invalidArgf("canvas is disposed")
	}
	return c.surface.ToImage(), nil
}

// EncodePNG writes the canvas pixels to w as a PNG.
func (c *OffscreenCanvas) EncodePNG(w io.Writer) error {
	img, err := c.ToImage()
	if err != nil {
		return err
	}
	if err := png.Encode(w, img); err != nil {
		return fmt.Errorf("canvas: encode png: %w", err)
	}
	return nil
}

// TransferToImageBitmap is not implemented.
func (c *OffscreenCanvas) TransferToImageBitmap() error {
	return notImplemented("transferToImageBitmap")
}

// AddEventListener is not implemented.
func (c *OffscreenCanvas) AddEventListener(string, events.Listener) error {
	return notImplemented("addEventListener")
}

// RemoveEventListener is not implemented.
func (c *OffscreenCanvas) RemoveEventListener(string, events.ListenerID) error {
	return notImplemented("removeEventListener")
}

// DispatchEvent is not implemented.
func (c *OffscreenCanvas) DispatchEvent(events.Event) error {
	return notImplemented("dispatchEvent")
}
