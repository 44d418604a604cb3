package render

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

// ColorType is the channel layout of a pixel buffer.
type ColorType int

const (
	ColorTypeRGBA8888 ColorType = iota
)

// AlphaType says whether color channels are premultiplied by alpha.
type AlphaType int

const (
	AlphaTypeUnpremul AlphaType = iota
	AlphaTypePremul
)

// ImageInfo describes a raw pixel buffer.
type ImageInfo struct {
	Width     int
	Height    int
	ColorType ColorType
	AlphaType AlphaType
}

// RGBAInfo describes a width x height RGBA8 unpremultiplied buffer, the
// layout used for every pixel transfer in the shim.
func RGBAInfo(width, height int) ImageInfo {
	return ImageInfo{
		Width:     width,
		Height:    height,
		ColorType: ColorTypeRGBA8888,
		AlphaType: AlphaTypeUnpremul,
	}
}

// MinRowBytes is the tightest row stride for the described buffer.
func (info ImageInfo) MinRowBytes() int {
	return info.Width * 4
}

func (info ImageInfo) validate(rowBytes int) error {
	if info.Width < 0 || info.Height < 0 {
		return fmt.Errorf("render: invalid image size %dx%d", info.Width, info.Height)
	}
	if info.ColorType != ColorTypeRGBA8888 {
		return fmt.Errorf("render: unsupported color type %d", info.ColorType)
	}
	if rowBytes < info.MinRowBytes() {
		return fmt.Errorf("render: row stride %d shorter than %d", rowBytes, info.MinRowBytes())
	}
	return nil
}

// Image is an immutable native image.
type Image struct {
	handle
	pix image.Image
}

func (e *Engine) newImage(pix image.Image) *Image {
	img := &Image{pix: pix}
	img.init(e, KindImage)
	return img
}

// Width returns the image width in pixels.
func (img *Image) Width() int { return img.pix.Bounds().Dx() }

// Height returns the image height in pixels.
func (img *Image) Height() int { return img.pix.Bounds().Dy() }

// Release frees the image.
func (img *Image) Release() {
	if img.release() {
		img.pix = image.Rectangle{}
	}
}

// MakeImage uploads raw pixels described by info. The bytes are copied, so
// data may be reused once MakeImage returns. Release the image when done.
func (e *Engine) MakeImage(info ImageInfo, data []byte, rowBytes int) (*Image, error) {
	if err := info.validate(rowBytes); err != nil {
		return nil, err
	}
	need := 0
	if info.Height > 0 {
		need = rowBytes*(info.Height-1) + info.MinRowBytes()
	}
	if len(data) < need {
		return nil, fmt.Errorf("render: pixel buffer holds %d bytes, need %d", len(data), need)
	}

	r := image.Rect(0, 0, info.Width, info.Height)
	var pix draw.Image
	var dst []byte
	var stride int
	if info.AlphaType == AlphaTypePremul {
		m := image.NewRGBA(r)
		pix, dst, stride = m, m.Pix, m.Stride
	} else {
		m := image.NewNRGBA(r)
		pix, dst, stride = m, m.Pix, m.Stride
	}
	for y := 0; y < info.Height; y++ {
		copy(dst[y*stride:y*stride+info.MinRowBytes()], data[y*rowBytes:])
	}
	return e.newImage(pix), nil
}

// ErrUnknownFormat is returned by DecodeImage for data no registered decoder
// recognizes.
var ErrUnknownFormat = errors.New("render: unknown image format")

// DecodeImage decodes an encoded image (png, jpeg, gif, bmp, tiff or webp).
// Release the image when done.
func (e *Engine) DecodeImage(data []byte) (*Image, error) {
	src, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrUnknownFormat
		}
		return nil, fmt.Errorf("render: decode: %w", err)
	}
	b := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)

	Logger().Debug("render: decoded image", "format", format, "width", b.Dx(), "height", b.Dy())
	return e.newImage(dst), nil
}

// unpremultiply writes the non-premultiplied form of c into px.
func unpremultiply(px []byte, c color.RGBA) {
	if c.A == 0 {
		px[0], px[1], px[2], px[3] = 0, 0, 0, 0
		return
	}
	if c.A == 255 {
		px[0], px[1], px[2], px[3] = c.R, c.G, c.B, 255
		return
	}
	a := uint32(c.A)
	un := func(v uint8) uint8 {
		x := (uint32(v)*255 + a/2) / a
		if x > 255 {
			x = 255
		}
		return uint8(x)
	}
	px[0], px[1], px[2], px[3] = un(c.R), un(c.G), un(c.B), c.A
}
