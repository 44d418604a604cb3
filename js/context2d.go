package js

import (
	"image/color"
	"math"

	"github.com/chrisuehlinger/canvashim/canvas"
	"github.com/chrisuehlinger/canvashim/render"
	"github.com/dop251/goja"
)

// bindContext2D defines the CanvasRenderingContext2D surface on obj.
// Reference: https://html.spec.whatwg.org/multipage/canvas.html#canvasrenderingcontext2d
func (b *CanvasBinder) bindContext2D(obj *goja.Object, ctx *canvas.Context2D) {
	vm := b.runtime.vm
	b.register(obj, ctx)

	// canvas (the OffscreenCanvas this context draws into)
	obj.DefineAccessorProperty("canvas", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return b.OffscreenCanvas(ctx.Canvas())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	// fillStyle
	obj.DefineAccessorProperty("fillStyle", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(ctx.FillStyle())
	}), vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			setColor(call.Arguments[0], ctx.SetFillStyle, ctx.SetFillColor)
		}
		return goja.Undefined()
	}), goja.FLAG_FALSE, goja.FLAG_TRUE)

	// strokeStyle
	obj.DefineAccessorProperty("strokeStyle", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(ctx.StrokeStyle())
	}), vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			setColor(call.Arguments[0], ctx.SetStrokeStyle, ctx.SetStrokeColor)
		}
		return goja.Undefined()
	}), goja.FLAG_FALSE, goja.FLAG_TRUE)

	// lineWidth
	obj.DefineAccessorProperty("lineWidth", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(ctx.LineWidth())
	}), vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			ctx.SetLineWidth(call.Arguments[0].ToFloat())
		}
		return goja.Undefined()
	}), goja.FLAG_FALSE, goja.FLAG_TRUE)

	// font
	obj.DefineAccessorProperty("font", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(ctx.Font())
	}), vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			ctx.SetFont(call.Arguments[0].String())
		}
		return goja.Undefined()
	}), goja.FLAG_FALSE, goja.FLAG_TRUE)

	// Methods

	obj.Set("save", func(call goja.FunctionCall) goja.Value {
		ctx.Save()
		return goja.Undefined()
	})

	obj.Set("restore", func(call goja.FunctionCall) goja.Value {
		ctx.Restore()
		return goja.Undefined()
	})

	// dispose() releases the context's native canvas; the surface stays
	// with the OffscreenCanvas.
	obj.Set("dispose", func(call goja.FunctionCall) goja.Value {
		ctx.Dispose()
		return goja.Undefined()
	})

	// fillRect(x, y, width, height)
	obj.Set("fillRect", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) >= 4 {
			a := floatArgs(call.Arguments[:4])
			ctx.FillRect(a[0], a[1], a[2], a[3])
		}
		return goja.Undefined()
	})

	obj.Set("beginPath", func(call goja.FunctionCall) goja.Value {
		ctx.BeginPath()
		return goja.Undefined()
	})

	// moveTo(x, y)
	obj.Set("moveTo", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) >= 2 {
			ctx.MoveTo(call.Arguments[0].ToFloat(), call.Arguments[1].ToFloat())
		}
		return goja.Undefined()
	})

	// lineTo(x, y)
	obj.Set("lineTo", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) >= 2 {
			ctx.LineTo(call.Arguments[0].ToFloat(), call.Arguments[1].ToFloat())
		}
		return goja.Undefined()
	})

	obj.Set("closePath", func(call goja.FunctionCall) goja.Value {
		ctx.ClosePath()
		return goja.Undefined()
	})

	// rect(x, y, width, height)
	obj.Set("rect", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) >= 4 {
			a := floatArgs(call.Arguments[:4])
			ctx.Rect(a[0], a[1], a[2], a[3])
		}
		return goja.Undefined()
	})

	obj.Set("fill", func(call goja.FunctionCall) goja.Value {
		ctx.Fill()
		return goja.Undefined()
	})

	obj.Set("stroke", func(call goja.FunctionCall) goja.Value {
		ctx.Stroke()
		return goja.Undefined()
	})

	// fillText(text, x, y, maxWidth?)
	obj.Set("fillText", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) >= 3 {
			ctx.FillText(call.Arguments[0].String(), call.Arguments[1].ToFloat(), call.Arguments[2].ToFloat())
		}
		return goja.Undefined()
	})

	// strokeText(text, x, y, maxWidth?)
	obj.Set("strokeText", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) >= 3 {
			ctx.StrokeText(call.Arguments[0].String(), call.Arguments[1].ToFloat(), call.Arguments[2].ToFloat())
		}
		return goja.Undefined()
	})

	// measureText(text)
	obj.Set("measureText", func(call goja.FunctionCall) goja.Value {
		text := ""
		if len(call.Arguments) > 0 {
			text = call.Arguments[0].String()
		}
		m := ctx.MeasureText(text)
		metrics := vm.NewObject()
		metrics.Set("width", m.Width)
		metrics.Set("fontBoundingBoxAscent", m.FontBoundingBoxAscent)
		metrics.Set("fontBoundingBoxDescent", m.FontBoundingBoxDescent)
		return metrics
	})

	// drawImage(image, dx, dy)
	// drawImage(image, dx, dy, dw, dh)
	// drawImage(image, sx, sy, sw, sh, dx, dy, dw, dh)
	obj.Set("drawImage", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 {
			panic(vm.NewTypeError("drawImage: 1 argument required"))
		}
		src, ok := b.Native(call.Arguments[0]).(canvas.ImageSource)
		if !ok {
			panic(vm.NewTypeError("drawImage: source is not an Image or OffscreenCanvas"))
		}
		if err := ctx.DrawImage(src, floatArgs(call.Arguments[1:])...); err != nil {
			panic(b.throw(err))
		}
		return goja.Undefined()
	})

	// putImageData(imageData, dx, dy, dirtyX?, dirtyY?, dirtyWidth?, dirtyHeight?)
	obj.Set("putImageData", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 3 {
			panic(vm.NewTypeError("putImageData: 3 arguments required"))
		}
		data, err := b.imageDataFrom(call.Arguments[0])
		if err != nil {
			panic(b.throw(err))
		}
		args := floatArgs(call.Arguments[1:])
		if err := ctx.PutImageData(data, args[0], args[1], args[2:]...); err != nil {
			panic(b.throw(err))
		}
		return goja.Undefined()
	})

	// getImageData(sx?, sy?, sw?, sh?)
	obj.Set("getImageData", func(call goja.FunctionCall) goja.Value {
		d, err := ctx.GetImageData(floatArgs(call.Arguments)...)
		if err != nil {
			panic(b.throw(err))
		}
		return b.ImageData(d)
	})
}

// setColor assigns a style from a CSS color string or a numeric 0xAARRGGBB
// value.
func setColor(v goja.Value, setCSS func(string), setARGB func(color.NRGBA)) {
	switch n := v.Export().(type) {
	case int64:
		setARGB(render.ColorFromARGB(uint32(n)))
	case float64:
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return
		}
		setARGB(render.ColorFromARGB(uint32(int64(n))))
	default:
		setCSS(v.String())
	}
}
