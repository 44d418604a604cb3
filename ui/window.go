// Package ui shows rendered canvases in a preview window.
package ui

import (
	"fmt"
	"image"
)

// Frame is one rendered canvas.
type Frame struct {
	Name  string
	Image *image.RGBA
}

// Title returns the tab label for the frame.
func (f Frame) Title() string {
	b := f.Image.Bounds()
	return fmt.Sprintf("%s (%dx%d)", f.Name, b.Dx(), b.Dy())
}

// Gallery is the preview state: an ordered list of frames and the one being
// shown.
type Gallery struct {
	Frames []Frame
	Active int
}

// NewGallery creates a gallery showing the first frame.
func NewGallery(frames []Frame) *Gallery {
	g := &Gallery{Frames: frames, Active: -1}
	if len(frames) > 0 {
		g.Active = 0
	}
	return g
}

// Add appends a frame and makes it active.
func (g *Gallery) Add(f Frame) {
	g.Frames = append(g.Frames, f)
	g.Active = len(g.Frames) - 1
}

// Select makes the frame at index active. Out of range indexes are ignored.
func (g *Gallery) Select(index int) {
	if index < 0 || index >= len(g.Frames) {
		return
	}
	g.Active = index
}

// Next activates the following frame, wrapping around.
func (g *Gallery) Next() {
	if len(g.Frames) == 0 {
		return
	}
	g.Active = (g.Active + 1) % len(g.Frames)
}

// Prev activates the preceding frame, wrapping around.
func (g *Gallery) Prev() {
	if len(g.Frames) == 0 {
		return
	}
	g.Active = (g.Active - 1 + len(g.Frames)) % len(g.Frames)
}

// Close removes the frame at index.
func (g *Gallery) Close(index int) {
	if index < 0 || index >= len(g.Frames) {
		return
	}
	g.Frames = append(g.Frames[:index], g.Frames[index+1:]...)
	if g.Active >= len(g.Frames) {
		g.Active = len(g.Frames) - 1
	}
}

// ActiveFrame returns the frame being shown, or nil if there is none.
func (g *Gallery) ActiveFrame() *Frame {
	if g.Active < 0 || g.Active >= len(g.Frames) {
		return nil
	}
	return &g.Frames[g.Active]
}
