package render

import (
	"fmt"
	"image"
	"image/color"

	"github.com/fogleman/gg"
)

// Surface is an offscreen RGBA pixel store with a Canvas drawing into it.
type Surface struct {
	handle
	pix    *image.RGBA
	canvas *Canvas
}

// MakeOffscreen creates a transparent width x height surface. Dispose it
// when done.
func (e *Engine) MakeOffscreen(width, height int) (*Surface, error) {
	if width < 0 || height < 0 {
		return nil, fmt.Errorf("render: invalid surface size %dx%d", width, height)
	}
	s := &Surface{pix: image.NewRGBA(image.Rect(0, 0, width, height))}
	s.canvas = &Canvas{surface: s, dc: gg.NewContextForRGBA(s.pix)}
	s.init(e, KindSurface)
	return s, nil
}

// Width returns the surface width.
func (s *Surface) Width() int { return s.pix.Rect.Dx() }

// Height returns the surface height.
func (s *Surface) Height() int { return s.pix.Rect.Dy() }

// Canvas returns the canvas drawing into this surface. It is owned by the
// surface and must not outlive it.
func (s *Surface) Canvas() *Canvas {
	return s.canvas
}

// MakeImageSnapshot copies the current pixels into a new image. Later draws
// on the surface do not affect the snapshot. Release the image when done.
func (s *Surface) MakeImageSnapshot() *Image {
	cp := image.NewRGBA(s.pix.Rect)
	copy(cp.Pix, s.pix.Pix)
	return s.engine.newImage(cp)
}

// ToImage returns a copy of the pixels as a Go image.
func (s *Surface) ToImage() *image.RGBA {
	cp := image.NewRGBA(s.pix.Rect)
	copy(cp.Pix, s.pix.Pix)
	return cp
}

// At returns the premultiplied color of one pixel; out of range pixels are
// transparent.
func (s *Surface) At(x, y int) color.RGBA {
	return s.pix.RGBAAt(x, y)
}

// Dispose releases the surface. Drawing through its canvas afterwards is a
// logged no-op.
func (s *Surface) Dispose() {
	if s.release() {
		s.canvas.disposed = true
	}
}
