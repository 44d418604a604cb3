package render

import (
	"image"
	"image/color"
	"log/slog"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/draw"
)

// Canvas issues draw calls against a Surface's pixels. Every draw takes its
// style from the Paint passed with it; the canvas keeps no current color.
type Canvas struct {
	surface  *Surface
	dc       *gg.Context
	saves    int
	draws    int
	disposed bool
}

// ready reports whether the canvas can still draw, logging when it cannot.
func (c *Canvas) ready(op string) bool {
	if c.disposed {
		Logger().Warn("render: draw on disposed canvas", slog.String("op", op))
		return false
	}
	return true
}

// DrawCount returns how many draw calls reached the surface.
func (c *Canvas) DrawCount() int {
	return c.draws
}

// Surface returns the surface this canvas draws into.
func (c *Canvas) Surface() *Surface {
	return c.surface
}

func (c *Canvas) applyPaint(p *Paint) {
	c.dc.SetColor(p.color)
	c.dc.SetLineWidth(p.lineWidth())
	c.dc.SetLineCap(gg.LineCapButt)
	c.dc.SetLineJoin(gg.LineJoinRound)
	c.dc.SetFillRuleWinding()
}

func (c *Canvas) finish(p *Paint) {
	if p.style == PaintStyleStroke {
		c.dc.Stroke()
	} else {
		c.dc.Fill()
	}
	c.draws++
}

// DrawRect fills or strokes r.
func (c *Canvas) DrawRect(r Rect, p *Paint) {
	if !c.ready("drawRect") {
		return
	}
	c.dc.ClearPath()
	c.applyPaint(p)
	c.dc.DrawRectangle(r.X, r.Y, r.Width, r.Height)
	c.finish(p)
}

// DrawPath fills or strokes path.
func (c *Canvas) DrawPath(path *Path, p *Paint) {
	if !c.ready("drawPath") {
		return
	}
	c.dc.ClearPath()
	c.applyPaint(p)
	path.replay(c.dc)
	c.finish(p)
}

// DrawText fills or strokes the glyph outlines of text with the baseline
// origin at (x, y).
func (c *Canvas) DrawText(text string, x, y float64, f *Font, p *Paint) {
	if !c.ready("drawText") {
		return
	}
	c.dc.ClearPath()
	c.applyPaint(p)
	f.appendText(c.dc, text, x, y)
	c.finish(p)
}

// DrawImage blits img at its natural size with its top-left at (x, y). A nil
// paint composites source-over.
func (c *Canvas) DrawImage(img *Image, x, y float64, p *Paint) {
	if !c.ready("drawImage") {
		return
	}
	b := img.pix.Bounds()
	origin := image.Pt(int(math.Round(x)), int(math.Round(y)))
	dr := image.Rectangle{Min: origin, Max: origin.Add(b.Size())}
	draw.Draw(c.surface.pix, dr, img.pix, b.Min, blendOf(p).op())
	c.draws++
}

// DrawImageRect scales the src region of img into dst. Parts of src outside
// the image are clipped and dst shrinks proportionally.
func (c *Canvas) DrawImageRect(img *Image, src, dst Rect, p *Paint) {
	if !c.ready("drawImageRect") {
		return
	}
	if src.IsEmpty() || dst.IsEmpty() {
		return
	}
	sr := src.pixelBounds()
	clipped := sr.Intersect(img.pix.Bounds())
	if clipped.Empty() {
		return
	}
	if clipped != sr {
		sx := dst.Width / src.Width
		sy := dst.Height / src.Height
		dst = Rect{
			X:      dst.X + (float64(clipped.Min.X)-src.X)*sx,
			Y:      dst.Y + (float64(clipped.Min.Y)-src.Y)*sy,
			Width:  float64(clipped.Dx()) * sx,
			Height: float64(clipped.Dy()) * sy,
		}
	}
	dr := dst.pixelBounds()
	op := blendOf(p).op()
	if dr.Size() == clipped.Size() {
		draw.Draw(c.surface.pix, dr, img.pix, clipped.Min, op)
	} else {
		draw.ApproxBiLinear.Scale(c.surface.pix, dr, img.pix, clipped, op, nil)
	}
	c.draws++
}

func blendOf(p *Paint) BlendMode {
	if p == nil {
		return BlendSrcOver
	}
	return p.blend
}

// ReadPixels copies the info.Width x info.Height region at (x, y) into a new
// buffer laid out as info describes, rowBytes apart. Pixels outside the
// surface read as transparent black.
func (c *Canvas) ReadPixels(x, y int, info ImageInfo, rowBytes int) ([]byte, error) {
	if err := info.validate(rowBytes); err != nil {
		return nil, err
	}
	out := make([]byte, rowBytes*info.Height)
	pix := c.surface.pix
	for j := 0; j < info.Height; j++ {
		for i := 0; i < info.Width; i++ {
			pt := image.Pt(x+i, y+j)
			if !pt.In(pix.Rect) {
				continue
			}
			off := j*rowBytes + i*4
			src := pix.PixOffset(pt.X, pt.Y)
			if info.AlphaType == AlphaTypePremul {
				copy(out[off:off+4], pix.Pix[src:src+4])
				continue
			}
			unpremultiply(out[off:off+4], color.RGBA{
				R: pix.Pix[src], G: pix.Pix[src+1], B: pix.Pix[src+2], A: pix.Pix[src+3],
			})
		}
	}
	return out, nil
}

// Clear fills the whole surface with col, replacing existing pixels.
func (c *Canvas) Clear(col color.NRGBA) {
	if !c.ready("clear") {
		return
	}
	pix := c.surface.pix
	draw.Draw(pix, pix.Rect, image.NewUniform(col), image.Point{}, draw.Src)
	c.draws++
}

// Save pushes the drawing state and returns the new save depth.
func (c *Canvas) Save() int {
	c.dc.Push()
	c.saves++
	return c.saves
}

// Restore pops the state pushed by the matching Save. Unbalanced calls are
// ignored.
func (c *Canvas) Restore() {
	if c.saves == 0 {
		return
	}
	c.dc.Pop()
	c.saves--
}

// SaveCount returns the current save depth.
func (c *Canvas) SaveCount() int {
	return c.saves
}

// Dispose detaches the canvas from its surface. The surface itself stays
// alive until the surface is disposed.
func (c *Canvas) Dispose() {
	for c.saves > 0 {
		c.Restore()
	}
	c.disposed = true
}
