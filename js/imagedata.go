package js

import (
	"math"
	"strconv"

	"github.com/chrisuehlinger/canvashim/canvas"
	"github.com/dop251/goja"
)

// newImageData implements both constructor forms:
//
//	new ImageData(width, height)
//	new ImageData(data, width, height?)
func (b *CanvasBinder) newImageData(args []goja.Value) (*canvas.ImageData, error) {
	if len(args) > 0 {
		if obj, ok := args[0].(*goja.Object); ok {
			data, err := b.bytesOf(obj)
			if err != nil {
				return nil, err
			}
			w := intArg(args, 1)
			if w <= 0 {
				return nil, invalidArg("ImageData width must be positive")
			}
			h := intArg(args, 2)
			if len(args) < 3 {
				h = len(data) / 4 / w
			}
			return canvas.NewImageDataFromBytes(data, w, h)
		}
	}
	return canvas.NewImageData(intArg(args, 0), intArg(args, 1))
}

func (b *CanvasBinder) bindImageData(obj *goja.Object, d *canvas.ImageData) {
	vm := b.runtime.vm
	b.attach(obj, d)

	obj.DefineAccessorProperty("width", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(d.Width)
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	obj.DefineAccessorProperty("height", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(d.Height)
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	// data shares d.Data, so writes from script reach the Go buffer.
	data, err := vm.New(vm.Get("Uint8ClampedArray"), vm.ToValue(vm.NewArrayBuffer(d.Data)))
	if err != nil {
		panic(vm.NewGoError(err))
	}
	obj.DefineDataProperty("data", data, goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_TRUE)
}

// imageDataFrom returns the ImageData v wraps. Plain objects with width,
// height and data properties are accepted too.
func (b *CanvasBinder) imageDataFrom(v goja.Value) (*canvas.ImageData, error) {
	if d, ok := b.Native(v).(*canvas.ImageData); ok {
		return d, nil
	}
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil, invalidArg("putImageData: argument is not an ImageData")
	}
	dataObj, ok := obj.Get("data").(*goja.Object)
	if !ok {
		return nil, invalidArg("putImageData: ImageData has no data")
	}
	data, err := b.bytesOf(dataObj)
	if err != nil {
		return nil, err
	}
	w := intArg([]goja.Value{obj.Get("width")}, 0)
	h := intArg([]goja.Value{obj.Get("height")}, 0)
	return canvas.NewImageDataFromBytes(data, w, h)
}

// bytesOf returns the bytes of a byte-sized typed array, sharing its
// buffer, or a copy of the elements of an ordinary array.
func (b *CanvasBinder) bytesOf(obj *goja.Object) ([]byte, error) {
	if buf := obj.Get("buffer"); buf != nil {
		ab, ok := buf.Export().(goja.ArrayBuffer)
		if !ok {
			return nil, invalidArg("data buffer is not an ArrayBuffer")
		}
		if size := obj.Get("BYTES_PER_ELEMENT"); size == nil || size.ToInteger() != 1 {
			return nil, invalidArg("data must be a Uint8ClampedArray")
		}
		off := int(obj.Get("byteOffset").ToInteger())
		n := int(obj.Get("byteLength").ToInteger())
		return ab.Bytes()[off : off+n], nil
	}

	length := obj.Get("length")
	if length == nil {
		return nil, invalidArg("data must be a Uint8ClampedArray")
	}
	out := make([]byte, max(length.ToInteger(), 0))
	for i := range out {
		if v := obj.Get(strconv.Itoa(i)); v != nil {
			out[i] = clampByte(v.ToFloat())
		}
	}
	return out, nil
}

// clampByte converts like Uint8ClampedArray: round half to even, clamp to
// 0..255, NaN to 0.
func clampByte(f float64) byte {
	switch {
	case math.IsNaN(f) || f <= 0:
		return 0
	case f >= 255:
		return 255
	}
	return byte(math.RoundToEven(f))
}
