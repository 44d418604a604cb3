// Package canvas implements a browser-style 2D drawing API (OffscreenCanvas,
// CanvasRenderingContext2D, Image and ImageData) on top of the render
// package.
//
// Everything hangs off an Env, which owns the rasterizer engine, the loop
// that delivers asynchronous image loads and the loader that fetches image
// bytes. Objects created from an Env must only be used from the goroutine
// running its loop.
package canvas

import (
	"context"
	"slices"

	"github.com/chrisuehlinger/canvashim/events"
	"github.com/chrisuehlinger/canvashim/network"
	"github.com/chrisuehlinger/canvashim/render"
)

// Option configures an Env.
type Option func(*Env)

// WithEngine makes the Env draw with engine.
func WithEngine(engine *render.Engine) Option {
	return func(e *Env) {
		e.engine = engine
	}
}

// WithLoop makes the Env deliver image loads on loop.
func WithLoop(loop *events.Loop) Option {
	return func(e *Env) {
		e.loop = loop
	}
}

// WithLoader makes the Env fetch image sources with loader.
func WithLoader(loader *network.Loader) Option {
	return func(e *Env) {
		e.loader = loader
	}
}

// WithContext sets the context image fetches run under. Cancelling it
// fails loads still in flight.
func WithContext(ctx context.Context) Option {
	return func(e *Env) {
		e.ctx = ctx
	}
}

// Env holds the collaborators shared by every canvas object.
type Env struct {
	engine *render.Engine
	loop   *events.Loop
	loader *network.Loader
	ctx    context.Context

	canvases []*OffscreenCanvas
}

// NewEnv creates an Env. Collaborators not supplied by options get
// defaults: a fresh engine, loop and a loader able to fetch data:, file and
// HTTP sources.
func NewEnv(opts ...Option) *Env {
	e := &Env{}
	for _, opt := range opts {
		opt(e)
	}
	if e.engine == nil {
		e.engine = render.NewEngine()
	}
	if e.loop == nil {
		e.loop = events.NewLoop()
	}
	if e.loader == nil {
		client, err := network.NewClient()
		if err != nil {
			Logger().Warn("canvas: http sources disabled", "error", err)
		}
		e.loader = network.NewLoader(client)
	}
	if e.ctx == nil {
		e.ctx = context.Background()
	}
	return e
}

// Engine returns the rasterizer engine.
func (e *Env) Engine() *render.Engine { return e.engine }

// Loop returns the loop image loads complete on.
func (e *Env) Loop() *events.Loop { return e.loop }

// Loader returns the image loader.
func (e *Env) Loader() *network.Loader { return e.loader }

// Run delivers pending image loads until none are in flight or ctx is done.
func (e *Env) Run(ctx context.Context) error {
	return e.loop.Run(ctx)
}

// Canvases returns the canvases created by this Env that are not disposed,
// in creation order.
func (e *Env) Canvases() []*OffscreenCanvas {
	return slices.Clone(e.canvases)
}

func (e *Env) forget(c *OffscreenCanvas) {
	e.canvases = slices.DeleteFunc(e.canvases, func(o *OffscreenCanvas) bool {
		return o == c
	})
}

// Close disposes every canvas still alive.
func (e *Env) Close() {
	for _, c := range slices.Clone(e.canvases) {
		c.Dispose()
	}
	e.canvases = nil
}
