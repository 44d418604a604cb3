package canvas

import "github.com/chrisuehlinger/canvashim/render"

// Size limits for canvases and pixel buffers, matching what browsers
// accept.
const (
	MaxDimension = 32767
	MaxArea      = 1 << 28
)

// checkSize rejects negative sizes and sizes past MaxDimension or MaxArea.
func checkSize(what string, width, height int) error {
	if width < 0 || height < 0 || width > MaxDimension || height > MaxDimension || width*height > MaxArea {
		return invalidArgf("%s size %dx%d", what, width, height)
	}
	return nil
}

// ImageData is a width x height block of RGBA8 unpremultiplied pixels, four
// bytes per pixel, rows packed without padding.
type ImageData struct {
	Width  int
	Height int
	Data   []byte
}

// NewImageData returns a zero-filled (transparent black) buffer.
func NewImageData(width, height int) (*ImageData, error) {
	if err := checkSize("image data", width, height); err != nil {
		return nil, err
	}
	return &ImageData{
		Width:  width,
		Height: height,
		Data:   make([]byte, width*height*4),
	}, nil
}

// NewImageDataFromBytes wraps data without copying it. len(data) must be
// exactly width*height*4.
func NewImageDataFromBytes(data []byte, width, height int) (*ImageData, error) {
	if err := checkSize("image data", width, height); err != nil {
		return nil, err
	}
	if len(data) != width*height*4 {
		return nil, invalidArgf("image data holds %d bytes, %dx%d needs %d",
			len(data), width, height, width*height*4)
	}
	return &ImageData{Width: width, Height: height, Data: data}, nil
}

func (d *ImageData) info() render.ImageInfo {
	return render.RGBAInfo(d.Width, d.Height)
}

func (d *ImageData) rowBytes() int {
	return d.Width * 4
}
