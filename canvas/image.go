package canvas

import (
	"fmt"
	"log/slog"

	"github.com/chrisuehlinger/canvashim/events"
	"github.com/chrisuehlinger/canvashim/network"
	"github.com/chrisuehlinger/canvashim/render"
)

// Event types emitted by Image.
const (
	EventLoad  = "load"
	EventError = "error"
)

// ImageState is where an Image is in its load cycle.
type ImageState int

const (
	ImageEmpty ImageState = iota
	ImageLoading
	ImageReady
	ImageFailed
)

func (s ImageState) String() string {
	switch s {
	case ImageLoading:
		return "loading"
	case ImageReady:
		return "ready"
	case ImageFailed:
		return "failed"
	}
	return "empty"
}

// Image is an asynchronously loaded image. Assigning a source starts a fetch
// and decode in the background; the result is delivered on the Env loop as
// a load or error event.
//
// Listeners may be added directly through the embedded Emitter or through
// the single-handler SetOnLoad and SetOnError slots.
type Image struct {
	*events.Emitter

	env *Env

	declaredWidth  int
	declaredHeight int
	width          int
	height         int

	src        string
	decoded    *render.Image
	state      ImageState
	generation uint64

	onload  *events.Slot
	onerror *events.Slot
}

// NewImage creates an empty image. Non-zero width and height are kept
// instead of the decoded image's natural size.
func (e *Env) NewImage(width, height int) *Image {
	img := &Image{
		Emitter:        events.NewEmitter(),
		env:            e,
		declaredWidth:  max(width, 0),
		declaredHeight: max(height, 0),
	}
	img.width, img.height = img.declaredWidth, img.declaredHeight
	img.onload = events.NewSlot(img.Emitter, EventLoad)
	img.onerror = events.NewSlot(img.Emitter, EventError)
	return img
}

// Width returns the declared width, or the natural width once loaded.
func (img *Image) Width() int { return img.width }

// Height returns the declared height, or the natural height once loaded.
func (img *Image) Height() int { return img.height }

// SetWidth declares the width used when drawing the image.
func (img *Image) SetWidth(w int) {
	img.declaredWidth = max(w, 0)
	img.width = img.declaredWidth
}

// SetHeight declares the height used when drawing the image.
func (img *Image) SetHeight(h int) {
	img.declaredHeight = max(h, 0)
	img.height = img.declaredHeight
}

// NaturalWidth returns the decoded image width, or 0.
func (img *Image) NaturalWidth() int {
	if img.decoded == nil {
		return 0
	}
	return img.decoded.Width()
}

// NaturalHeight returns the decoded image height, or 0.
func (img *Image) NaturalHeight() int {
	if img.decoded == nil {
		return 0
	}
	return img.decoded.Height()
}

// Src returns the last assigned source.
func (img *Image) Src() string { return img.src }

// State returns the load state.
func (img *Image) State() ImageState { return img.state }

// Complete reports whether no load is in flight.
func (img *Image) Complete() bool { return img.state != ImageLoading }

// SetSrc assigns a new source. An empty source clears the image at once:
// the decoded image is released and both dimensions drop to 0. Any other
// source starts a load; results of earlier loads still in flight are
// discarded when they arrive.
func (img *Image) SetSrc(src string) {
	img.src = src
	img.generation++

	if src == "" {
		img.dropDecoded()
		img.declaredWidth, img.declaredHeight = 0, 0
		img.width, img.height = 0, 0
		img.state = ImageEmpty
		return
	}

	img.state = ImageLoading
	gen := img.generation
	env := img.env
	Logger().Debug("canvas: image load started", slog.String("src", src), slog.Uint64("generation", gen))

	env.loop.Go(func() func() {
		decoded, err := env.fetchImage(src)
		return func() {
			img.finishLoad(gen, decoded, err)
		}
	})
}

// fetchImage runs off the loop goroutine.
func (e *Env) fetchImage(src string) (*render.Image, error) {
	res := e.loader.LoadImage(e.ctx, src)
	if err := res.Err(); err != nil {
		return nil, err
	}
	decoded, err := e.engine.DecodeImage(res.Content)
	if err != nil && !network.IsImageContentType(res.ContentType) {
		return nil, fmt.Errorf("%w (served as %s)", err, res.ContentType)
	}
	return decoded, err
}

func (img *Image) finishLoad(gen uint64, decoded *render.Image, err error) {
	if gen != img.generation {
		if decoded != nil {
			decoded.Release()
		}
		Logger().Warn("canvas: dropped stale image load",
			slog.Uint64("generation", gen), slog.Uint64("current", img.generation))
		return
	}

	img.dropDecoded()
	if err != nil {
		img.width, img.height = img.declaredWidth, img.declaredHeight
		img.state = ImageFailed
		Logger().Debug("canvas: image load failed", slog.String("src", img.src), slog.Any("error", err))
		img.Emit(events.Event{Type: EventError, Target: img, Err: &DecodeError{Src: img.src, Err: err}})
		return
	}

	img.decoded = decoded
	img.width, img.height = img.declaredWidth, img.declaredHeight
	if img.width == 0 {
		img.width = decoded.Width()
	}
	if img.height == 0 {
		img.height = decoded.Height()
	}
	img.state = ImageReady
	Logger().Debug("canvas: image loaded", slog.String("src", img.src),
		slog.Int("width", decoded.Width()), slog.Int("height", decoded.Height()))
	img.Emit(events.Event{Type: EventLoad, Target: img})
}

func (img *Image) dropDecoded() {
	if img.decoded != nil {
		img.decoded.Release()
		img.decoded = nil
	}
}

// SetOnLoad replaces the load handler. If the image is already loaded, fn
// runs immediately instead of being subscribed.
func (img *Image) SetOnLoad(fn events.Listener) {
	var fired *events.Event
	if img.state == ImageReady {
		fired = &events.Event{Type: EventLoad, Target: img}
	}
	img.onload.Set(fn, fired)
}

// OnLoad returns the load handler.
func (img *Image) OnLoad() events.Listener { return img.onload.Handler() }

// SetOnError replaces the error handler. Failures are not remembered, so fn
// only sees errors from loads that finish later.
func (img *Image) SetOnError(fn events.Listener) {
	img.onerror.Set(fn, nil)
}

// OnError returns the error handler.
func (img *Image) OnError() events.Listener { return img.onerror.Handler() }

// Release frees the decoded image and abandons any load in flight. The
// image can be reused by assigning a new source.
func (img *Image) Release() {
	img.generation++
	img.dropDecoded()
	img.width, img.height = img.declaredWidth, img.declaredHeight
	img.state = ImageEmpty
}

// ready returns the decoded image for drawing.
func (img *Image) ready() (*render.Image, bool) {
	return img.decoded, img.decoded != nil
}
