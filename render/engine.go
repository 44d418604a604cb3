// Package render is the native rasterizer behind the canvas shim.
//
// It hands out opaque resources (surfaces, paths, paints, fonts and images)
// that must each be released exactly once. An Engine owns the accounting for
// every resource it creates, so callers can check that nothing leaked.
// Drawing is delegated to fogleman/gg over an image.RGBA backing store;
// images are blitted with golang.org/x/image/draw.
//
// Resources are not safe for concurrent mutation. All calls on a resource
// are expected to come from a single goroutine.
package render

import (
	"fmt"
	"log/slog"
	"sync"
)

// Kind identifies a class of native resource.
type Kind int

const (
	KindSurface Kind = iota
	KindPath
	KindPaint
	KindFont
	KindImage
	kindCount
)

func (k Kind) String() string {
	switch k {
	case KindSurface:
		return "surface"
	case KindPath:
		return "path"
	case KindPaint:
		return "paint"
	case KindFont:
		return "font"
	case KindImage:
		return "image"
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithFontBook makes the engine resolve fonts from fb instead of a fresh
// book holding only the built-in families.
func WithFontBook(fb *FontBook) EngineOption {
	return func(e *Engine) {
		e.fonts = fb
	}
}

// Engine creates native resources and tracks how many of each are alive.
type Engine struct {
	fonts *FontBook

	mu        sync.Mutex
	nextID    uint64
	live      [kindCount]int
	allocated [kindCount]uint64
}

// NewEngine creates an engine.
func NewEngine(opts ...EngineOption) *Engine {
	e := &Engine{}
	for _, opt := range opts {
		opt(e)
	}
	if e.fonts == nil {
		e.fonts = NewFontBook()
	}
	return e
}

// Fonts returns the font book used by MatchFont.
func (e *Engine) Fonts() *FontBook {
	return e.fonts
}

// Live returns how many resources of kind k are currently unreleased.
func (e *Engine) Live(k Kind) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.live[k]
}

// LiveTotal returns the number of unreleased resources of every kind.
func (e *Engine) LiveTotal() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	n := 0
	for _, v := range e.live {
		n += v
	}
	return n
}

// Allocated returns how many resources of kind k were ever created.
func (e *Engine) Allocated(k Kind) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.allocated[k]
}

func (e *Engine) acquire(k Kind) uint64 {
	e.mu.Lock()
	e.nextID++
	id := e.nextID
	e.live[k]++
	e.allocated[k]++
	e.mu.Unlock()

	Logger().Debug("render: acquire", slog.String("kind", k.String()), slog.Uint64("id", id))
	return id
}

func (e *Engine) release(k Kind, id uint64) {
	e.mu.Lock()
	e.live[k]--
	e.mu.Unlock()

	Logger().Debug("render: release", slog.String("kind", k.String()), slog.Uint64("id", id))
}

// handle is the bookkeeping shared by every native resource.
type handle struct {
	engine   *Engine
	kind     Kind
	id       uint64
	released bool
}

func (h *handle) init(e *Engine, k Kind) {
	h.engine = e
	h.kind = k
	h.id = e.acquire(k)
}

// release marks the handle released. It reports false, and logs, when the
// handle was already released.
func (h *handle) release() bool {
	if h.released {
		Logger().Warn("render: double release",
			slog.String("kind", h.kind.String()), slog.Uint64("id", h.id))
		return false
	}
	h.released = true
	h.engine.release(h.kind, h.id)
	return true
}

// Released reports whether the resource has been released.
func (h *handle) Released() bool {
	return h.released
}
