package render

import (
	"image/color"

	"golang.org/x/image/draw"
)

// PaintStyle selects whether geometry is filled or outlined.
type PaintStyle int

const (
	PaintStyleFill PaintStyle = iota
	PaintStyleStroke
)

func (s PaintStyle) String() string {
	if s == PaintStyleStroke {
		return "stroke"
	}
	return "fill"
}

// BlendMode selects how source pixels combine with the destination.
type BlendMode int

const (
	// BlendSrcOver composites the source over the destination.
	BlendSrcOver BlendMode = iota
	// BlendSrc replaces the destination with the source.
	BlendSrc
)

func (m BlendMode) op() draw.Op {
	if m == BlendSrc {
		return draw.Src
	}
	return draw.Over
}

// Paint carries the style for a single draw call.
type Paint struct {
	handle
	style       PaintStyle
	color       color.NRGBA
	strokeWidth float64
	blend       BlendMode
}

// NewPaint creates an opaque black fill paint. Release it when done.
func (e *Engine) NewPaint() *Paint {
	p := &Paint{color: color.NRGBA{A: 255}}
	p.init(e, KindPaint)
	return p
}

// SetStyle sets fill or stroke.
func (p *Paint) SetStyle(s PaintStyle) { p.style = s }

// Style returns the paint style.
func (p *Paint) Style() PaintStyle { return p.style }

// SetColor sets the paint color.
func (p *Paint) SetColor(c color.NRGBA) { p.color = c }

// Color returns the paint color.
func (p *Paint) Color() color.NRGBA { return p.color }

// SetStrokeWidth sets the outline width. Zero draws a one pixel hairline.
func (p *Paint) SetStrokeWidth(w float64) { p.strokeWidth = w }

// StrokeWidth returns the outline width.
func (p *Paint) StrokeWidth() float64 { return p.strokeWidth }

// SetBlendMode sets how image blits combine with the destination.
func (p *Paint) SetBlendMode(m BlendMode) { p.blend = m }

// BlendMode returns the blend mode.
func (p *Paint) BlendMode() BlendMode { return p.blend }

// Release frees the paint.
func (p *Paint) Release() {
	p.release()
}

func (p *Paint) lineWidth() float64 {
	if p.strokeWidth <= 0 {
		return 1
	}
	return p.strokeWidth
}
