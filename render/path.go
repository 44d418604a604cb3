package render

import (
	"image"
	"math"

	"github.com/fogleman/gg"
)

// Point is a 2D coordinate.
type Point struct {
	X, Y float64
}

// Rect is a plain rectangle value. Unlike paths it holds no native state and
// needs no release.
type Rect struct {
	X, Y, Width, Height float64
}

// XYWH builds a Rect from its origin and size.
func XYWH(x, y, w, h float64) Rect {
	return Rect{X: x, Y: y, Width: w, Height: h}
}

// IsEmpty reports whether the rectangle covers no area.
func (r Rect) IsEmpty() bool {
	return r.Width == 0 || r.Height == 0
}

// pixelBounds rounds the rectangle to the pixel grid, normalizing negative
// extents.
func (r Rect) pixelBounds() image.Rectangle {
	x0, x1 := r.X, r.X+r.Width
	if x1 < x0 {
		x0, x1 = x1, x0
	}
	y0, y1 := r.Y, r.Y+r.Height
	if y1 < y0 {
		y0, y1 = y1, y0
	}
	return image.Rect(
		int(math.Round(x0)), int(math.Round(y0)),
		int(math.Round(x1)), int(math.Round(y1)),
	)
}

// Verb is a path construction command.
type Verb int

const (
	VerbMove Verb = iota
	VerbLine
	VerbClose
)

// Path is a native path made of straight segments.
type Path struct {
	handle
	verbs  []Verb
	points []Point

	open       bool
	start      Point
	lastPoint  Point
	hasCurrent bool
}

// NewPath creates an empty path. Release it when done.
func (e *Engine) NewPath() *Path {
	p := &Path{}
	p.init(e, KindPath)
	return p
}

// MoveTo starts a new contour at (x, y).
func (p *Path) MoveTo(x, y float64) {
	pt := Point{X: x, Y: y}
	p.verbs = append(p.verbs, VerbMove)
	p.points = append(p.points, pt)
	p.start = pt
	p.lastPoint = pt
	p.hasCurrent = true
	p.open = true
}

// LineTo appends a segment to (x, y). Without a current point the contour
// starts at the origin.
func (p *Path) LineTo(x, y float64) {
	if !p.hasCurrent {
		p.MoveTo(0, 0)
	} else if !p.open {
		// A line after Close continues from the closed contour's start.
		p.MoveTo(p.start.X, p.start.Y)
	}
	pt := Point{X: x, Y: y}
	p.verbs = append(p.verbs, VerbLine)
	p.points = append(p.points, pt)
	p.lastPoint = pt
}

// Close closes the current contour. It does nothing without an open contour.
func (p *Path) Close() {
	if !p.open {
		return
	}
	p.verbs = append(p.verbs, VerbClose)
	p.open = false
	p.lastPoint = p.start
}

// IsEmpty reports whether the path has no commands.
func (p *Path) IsEmpty() bool {
	return len(p.verbs) == 0
}

// Verbs returns a copy of the recorded commands.
func (p *Path) Verbs() []Verb {
	return append([]Verb(nil), p.verbs...)
}

// Bounds returns the bounding box of all points.
func (p *Path) Bounds() Rect {
	if len(p.points) == 0 {
		return Rect{}
	}
	minX, minY := p.points[0].X, p.points[0].Y
	maxX, maxY := minX, minY
	for _, pt := range p.points[1:] {
		minX = math.Min(minX, pt.X)
		minY = math.Min(minY, pt.Y)
		maxX = math.Max(maxX, pt.X)
		maxY = math.Max(maxY, pt.Y)
	}
	return Rect{X: minX, Y: minY, Width: maxX - minX, Height: maxY - minY}
}

// Release frees the path.
func (p *Path) Release() {
	if p.release() {
		p.verbs = nil
		p.points = nil
	}
}

// replay feeds the path into dc's current path.
func (p *Path) replay(dc *gg.Context) {
	i := 0
	for _, v := range p.verbs {
		switch v {
		case VerbMove:
			pt := p.points[i]
			i++
			dc.MoveTo(pt.X, pt.Y)
		case VerbLine:
			pt := p.points[i]
			i++
			dc.LineTo(pt.X, pt.Y)
		case VerbClose:
			dc.ClosePath()
		}
	}
}
