package canvas

import (
	"math"

	"github.com/chrisuehlinger/canvashim/render"
)

// ImageSource is something DrawImage can draw: an *Image or an
// *OffscreenCanvas.
type ImageSource interface {
	// source returns the native image to draw and the size the source
	// reports. When transient is true the caller releases the image.
	source() (img *render.Image, width, height float64, transient bool, err error)
}

func (img *Image) source() (*render.Image, float64, float64, bool, error) {
	if img == nil {
		return nil, 0, 0, false, invalidArgf("nil image")
	}
	decoded, ok := img.ready()
	if !ok {
		return nil, 0, 0, false, invalidArgf("image %q is %s", img.src, img.state)
	}
	return decoded, float64(img.width), float64(img.height), false, nil
}

func (c *OffscreenCanvas) source() (*render.Image, float64, float64, bool, error) {
	if c == nil {
		return nil, 0, 0, false, invalidArgf("nil canvas")
	}
	snap, err := c.snapshot()
	if err != nil {
		return nil, 0, 0, false, err
	}
	return snap, float64(c.width), float64(c.height), true, nil
}

// DrawImage draws src. args selects the form:
//
//	dx, dy                          natural size at (dx, dy)
//	dx, dy, dw, dh                  whole source scaled into the rect
//	sx, sy, sw, sh, dx, dy, dw, dh  source rect scaled into the rect
//
// A canvas source is drawn from a snapshot, so drawing a canvas into itself
// is safe.
func (c *Context2D) DrawImage(src ImageSource, args ...float64) error {
	if src == nil {
		return invalidArgf("drawImage source is nil")
	}
	if n := len(args); n != 2 && n != 4 && n != 8 {
		return invalidArgf("drawImage takes 2, 4 or 8 coordinates, got %d", n)
	}
	img, width, height, transient, err := src.source()
	if err != nil {
		return err
	}
	if transient {
		defer img.Release()
	}

	switch len(args) {
	case 2:
		c.native.DrawImage(img, args[0], args[1], nil)
	case 4:
		c.native.DrawImageRect(img,
			render.XYWH(0, 0, width, height),
			render.XYWH(args[0], args[1], args[2], args[3]), nil)
	case 8:
		c.native.DrawImageRect(img,
			render.XYWH(args[0], args[1], args[2], args[3]),
			render.XYWH(args[4], args[5], args[6], args[7]), nil)
	}
	return nil
}

// PutImageData writes data into the canvas at (dx, dy), replacing the
// pixels underneath. With dirty = dirtyX, dirtyY, dirtyWidth, dirtyHeight
// only that region of data is written, unscaled, with its top-left at
// (dx, dy).
func (c *Context2D) PutImageData(data *ImageData, dx, dy float64, dirty ...float64) error {
	if data == nil {
		return invalidArgf("putImageData data is nil")
	}
	if len(dirty) != 0 && len(dirty) != 4 {
		return invalidArgf("putImageData takes 0 or 4 dirty rect values, got %d", len(dirty))
	}
	img, err := c.engine.MakeImage(data.info(), data.Data, data.rowBytes())
	if err != nil {
		return invalidArgf("%v", err)
	}
	defer img.Release()

	paint := c.engine.NewPaint()
	defer paint.Release()
	paint.SetBlendMode(render.BlendSrc)

	if len(dirty) == 0 {
		c.native.DrawImage(img, dx, dy, paint)
		return nil
	}
	dirtyW, dirtyH := dirty[2], dirty[3]
	c.native.DrawImageRect(img,
		render.XYWH(dirty[0], dirty[1], dirtyW, dirtyH),
		render.XYWH(dx, dy, dirtyW, dirtyH), paint)
	return nil
}

// GetImageData reads pixels into a new ImageData. args is empty, (sx, sy)
// or (sx, sy, sw, sh); the origin defaults to 0,0 and the size to the
// canvas size. Pixels outside the canvas read as transparent black.
func (c *Context2D) GetImageData(args ...float64) (*ImageData, error) {
	sx, sy := 0, 0
	sw, sh := c.canvas.width, c.canvas.height
	switch len(args) {
	case 0:
	case 2:
		sx, sy = toPixel(args[0]), toPixel(args[1])
	case 4:
		sx, sy = toPixel(args[0]), toPixel(args[1])
		sw, sh = toPixel(args[2]), toPixel(args[3])
	default:
		return nil, invalidArgf("getImageData takes 0, 2 or 4 values, got %d", len(args))
	}
	if sw <= 0 || sh <= 0 {
		return nil, invalidArgf("getImageData size %dx%d", sw, sh)
	}
	if err := checkSize("getImageData", sw, sh); err != nil {
		return nil, err
	}

	info := render.RGBAInfo(sw, sh)
	pixels, err := c.native.ReadPixels(sx, sy, info, info.MinRowBytes())
	if err != nil {
		return nil, invalidArgf("%v", err)
	}
	return NewImageDataFromBytes(pixels, sw, sh)
}

func toPixel(v float64) int {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return int(math.Floor(v))
}
