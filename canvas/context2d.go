package canvas

import (
	"image/color"
	"log/slog"
	"math"

	"github.com/chrisuehlinger/canvashim/render"
)

// ShapeKind is the shape a context accumulates before fill or stroke.
type ShapeKind int

const (
	ShapeNone ShapeKind = iota
	ShapePath
	ShapeRect
)

func (k ShapeKind) String() string {
	switch k {
	case ShapePath:
		return "path"
	case ShapeRect:
		return "rect"
	}
	return "none"
}

// TextMetrics is the result of MeasureText.
type TextMetrics struct {
	Width                  float64
	FontBoundingBoxAscent  float64
	FontBoundingBoxDescent float64
}

// Context2D draws into an OffscreenCanvas.
//
// Geometry is accumulated as either a path (BeginPath, MoveTo, LineTo,
// ClosePath) or a single rect (Rect) and drawn by Fill or Stroke, which
// then discard it. Every native path, paint and font the context creates is
// released before the call that created it returns, except the pending
// path, which is released when it is drawn or replaced.
type Context2D struct {
	canvas *OffscreenCanvas
	engine *render.Engine
	native *render.Canvas

	lineWidth   float64
	fillStyle   color.NRGBA
	strokeStyle color.NRGBA
	font        string

	shape ShapeKind
	path  *render.Path
	rect  render.Rect
}

var opaqueBlack = color.NRGBA{A: 255}

func newContext2D(c *OffscreenCanvas) *Context2D {
	return &Context2D{
		canvas:      c,
		engine:      c.env.engine,
		native:      c.surface.Canvas(),
		lineWidth:   1,
		fillStyle:   opaqueBlack,
		strokeStyle: opaqueBlack,
		font:        DefaultFont,
	}
}

// Canvas returns the canvas the context draws into.
func (c *Context2D) Canvas() *OffscreenCanvas { return c.canvas }

// LineWidth returns the stroke width.
func (c *Context2D) LineWidth() float64 { return c.lineWidth }

// SetLineWidth sets the stroke width. Zero, negative and non-finite
// values are ignored.
func (c *Context2D) SetLineWidth(w float64) {
	if w <= 0 || math.IsInf(w, 0) || math.IsNaN(w) {
		return
	}
	c.lineWidth = w
}

// FillStyle returns the fill color in canonical CSS form.
func (c *Context2D) FillStyle() string { return render.FormatColor(c.fillStyle) }

// SetFillStyle parses a CSS color. Unparseable values are ignored.
func (c *Context2D) SetFillStyle(s string) {
	if col, ok := render.ParseColor(s); ok {
		c.fillStyle = col
	}
}

// SetFillColor sets the fill color directly.
func (c *Context2D) SetFillColor(col color.NRGBA) { c.fillStyle = col }

// StrokeStyle returns the stroke color in canonical CSS form.
func (c *Context2D) StrokeStyle() string { return render.FormatColor(c.strokeStyle) }

// SetStrokeStyle parses a CSS color. Unparseable values are ignored.
func (c *Context2D) SetStrokeStyle(s string) {
	if col, ok := render.ParseColor(s); ok {
		c.strokeStyle = col
	}
}

// SetStrokeColor sets the stroke color directly.
func (c *Context2D) SetStrokeColor(col color.NRGBA) { c.strokeStyle = col }

// Font returns the font string.
func (c *Context2D) Font() string { return c.font }

// SetFont sets the font string. It is resolved when text is drawn.
func (c *Context2D) SetFont(font string) { c.font = font }

// Shape returns the kind of shape pending a fill or stroke.
func (c *Context2D) Shape() ShapeKind { return c.shape }

// BeginPath discards any pending shape and starts an empty path.
func (c *Context2D) BeginPath() {
	c.clearShape()
	c.shape = ShapePath
	c.path = c.engine.NewPath()
}

// MoveTo starts a subpath. It does nothing outside path mode.
func (c *Context2D) MoveTo(x, y float64) {
	if c.shape != ShapePath || c.path == nil {
		return
	}
	c.path.MoveTo(x, y)
}

// LineTo adds a segment. It does nothing outside path mode.
func (c *Context2D) LineTo(x, y float64) {
	if c.shape != ShapePath || c.path == nil {
		return
	}
	c.path.LineTo(x, y)
}

// ClosePath closes the current subpath, if there is one.
func (c *Context2D) ClosePath() {
	if c.shape != ShapePath || c.path == nil {
		return
	}
	c.path.Close()
}

// Rect replaces any pending shape with a rectangle.
func (c *Context2D) Rect(x, y, w, h float64) {
	c.clearShape()
	c.shape = ShapeRect
	c.rect = render.XYWH(x, y, w, h)
}

// Fill fills the pending shape with the fill style and discards it. It
// does nothing when no shape is pending.
func (c *Context2D) Fill() {
	c.draw(render.PaintStyleFill)
}

// Stroke outlines the pending shape with the stroke style and line width
// and discards it. It does nothing when no shape is pending.
func (c *Context2D) Stroke() {
	c.draw(render.PaintStyleStroke)
}

func (c *Context2D) draw(style render.PaintStyle) {
	if c.shape == ShapeNone {
		return
	}
	defer c.clearShape()
	paint := c.newPaint(style)
	defer paint.Release()

	Logger().Debug("canvas: draw", slog.String("shape", c.shape.String()), slog.String("style", style.String()))
	switch c.shape {
	case ShapeRect:
		c.native.DrawRect(c.rect, paint)
	case ShapePath:
		c.native.DrawPath(c.path, paint)
	}
}

func (c *Context2D) clearShape() {
	if c.path != nil {
		c.path.Release()
		c.path = nil
	}
	c.rect = render.Rect{}
	c.shape = ShapeNone
}

// newPaint builds the paint for one draw call. The caller releases it.
func (c *Context2D) newPaint(style render.PaintStyle) *render.Paint {
	paint := c.engine.NewPaint()
	paint.SetStyle(style)
	if style == render.PaintStyleStroke {
		paint.SetColor(c.strokeStyle)
		paint.SetStrokeWidth(c.lineWidth)
	} else {
		paint.SetColor(c.fillStyle)
	}
	return paint
}

// FillRect fills a rectangle at once, leaving any pending shape alone.
func (c *Context2D) FillRect(x, y, w, h float64) {
	paint := c.newPaint(render.PaintStyleFill)
	defer paint.Release()
	c.native.DrawRect(render.XYWH(x, y, w, h), paint)
}

// FillText fills text with its alphabetic baseline starting at (x, y).
// A max width may be passed but is not applied.
func (c *Context2D) FillText(text string, x, y float64, maxWidth ...float64) {
	c.drawText(text, x, y, render.PaintStyleFill)
}

// StrokeText outlines text with its alphabetic baseline starting at (x, y).
// A max width may be passed but is not applied.
func (c *Context2D) StrokeText(text string, x, y float64, maxWidth ...float64) {
	c.drawText(text, x, y, render.PaintStyleStroke)
}

func (c *Context2D) drawText(text string, x, y float64, style render.PaintStyle) {
	font := c.engine.MatchFont(parseFont(c.font))
	defer font.Release()
	paint := c.newPaint(style)
	defer paint.Release()
	c.native.DrawText(text, x, y, font, paint)
}

// MeasureText measures text in the current font.
func (c *Context2D) MeasureText(text string) TextMetrics {
	font := c.engine.MatchFont(parseFont(c.font))
	defer font.Release()

	m := TextMetrics{Width: font.MeasureText(text)}
	if fm, err := font.Metrics(); err == nil {
		m.FontBoundingBoxAscent = float64(fm.Ascent) / 64
		m.FontBoundingBoxDescent = float64(fm.Descent) / 64
	}
	return m
}

// Save pushes the native canvas state.
func (c *Context2D) Save() {
	c.native.Save()
}

// Restore pops the native canvas state.
func (c *Context2D) Restore() {
	c.native.Restore()
}

// Dispose discards any pending shape and disposes the native canvas. The
// surface stays owned by the OffscreenCanvas.
func (c *Context2D) Dispose() {
	c.clearShape()
	c.native.Dispose()
}
