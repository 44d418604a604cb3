package js

import (
	"errors"
	"fmt"

	"github.com/chrisuehlinger/canvashim/canvas"
	"github.com/chrisuehlinger/canvashim/events"
	"github.com/dop251/goja"
)

// notImplementedMessage is the message of the Error thrown by the
// placeholder OffscreenCanvas methods.
const notImplementedMessage = "Method not implemented."

// CanvasBinder maps canvas objects to the JavaScript objects that represent
// them. Every wrapper carries its Go object under a private symbol. Canvases
// and contexts also keep exactly one wrapper each, so identity comparisons
// such as ctx.canvas === canvas hold; the entries go away on dispose.
type CanvasBinder struct {
	runtime *Runtime

	native   *goja.Symbol
	wrappers map[any]*goja.Object

	canvasProto    *goja.Object
	imageDataProto *goja.Object
	contextProto   *goja.Object
}

func newCanvasBinder(r *Runtime) *CanvasBinder {
	return &CanvasBinder{
		runtime:  r,
		native:   goja.NewSymbol("native"),
		wrappers: make(map[any]*goja.Object),
	}
}

// install defines the OffscreenCanvas, Image, ImageData and
// OffscreenCanvasRenderingContext2D globals.
func (b *CanvasBinder) install() {
	vm := b.runtime.vm

	b.canvasProto = b.defineClass("OffscreenCanvas", func(call goja.ConstructorCall) *goja.Object {
		w := intArg(call.Arguments, 0)
		h := intArg(call.Arguments, 1)
		c, err := b.runtime.env.NewOffscreenCanvas(w, h)
		if err != nil {
			panic(b.throw(err))
		}
		b.bindOffscreenCanvas(call.This, c)
		return nil
	})

	b.defineClass("Image", func(call goja.ConstructorCall) *goja.Object {
		img := b.runtime.env.NewImage(intArg(call.Arguments, 0), intArg(call.Arguments, 1))
		b.bindImage(call.This, img)
		return nil
	})

	b.imageDataProto = b.defineClass("ImageData", func(call goja.ConstructorCall) *goja.Object {
		d, err := b.newImageData(call.Arguments)
		if err != nil {
			panic(b.throw(err))
		}
		b.bindImageData(call.This, d)
		return nil
	})

	b.contextProto = b.defineClass("OffscreenCanvasRenderingContext2D", func(call goja.ConstructorCall) *goja.Object {
		panic(vm.NewTypeError("Illegal constructor"))
	})
}

func (b *CanvasBinder) defineClass(name string, ctor func(goja.ConstructorCall) *goja.Object) *goja.Object {
	vm := b.runtime.vm
	fn := vm.ToValue(ctor).ToObject(vm)
	vm.Set(name, fn)
	return fn.Get("prototype").ToObject(vm)
}

// attach stores native on obj where only Native can find it.
func (b *CanvasBinder) attach(obj *goja.Object, native any) {
	err := obj.DefineDataPropertySymbol(b.native, b.runtime.vm.ToValue(native), goja.FLAG_FALSE, goja.FLAG_FALSE, goja.FLAG_FALSE)
	if err != nil {
		panic(b.runtime.vm.NewGoError(err))
	}
}

// register attaches native to obj and makes obj its only wrapper.
func (b *CanvasBinder) register(obj *goja.Object, native any) {
	b.attach(obj, native)
	b.wrappers[native] = obj
}

// forget drops the wrapper of a disposed canvas and of its context.
func (b *CanvasBinder) forget(c *canvas.OffscreenCanvas) {
	delete(b.wrappers, c)
	for native := range b.wrappers {
		if ctx, ok := native.(*canvas.Context2D); ok && ctx.Canvas() == c {
			delete(b.wrappers, native)
		}
	}
}

// Native returns the Go object v wraps, or nil.
func (b *CanvasBinder) Native(v goja.Value) any {
	obj, ok := v.(*goja.Object)
	if !ok {
		return nil
	}
	nv := obj.GetSymbol(b.native)
	if nv == nil || goja.IsUndefined(nv) {
		return nil
	}
	return nv.Export()
}

// OffscreenCanvas returns the JavaScript object for c, creating it on first
// use.
func (b *CanvasBinder) OffscreenCanvas(c *canvas.OffscreenCanvas) *goja.Object {
	if obj, ok := b.wrappers[c]; ok {
		return obj
	}
	obj := b.runtime.vm.CreateObject(b.canvasProto)
	b.bindOffscreenCanvas(obj, c)
	return obj
}

// ImageData returns a new JavaScript ImageData whose data array shares d's
// buffer.
func (b *CanvasBinder) ImageData(d *canvas.ImageData) *goja.Object {
	obj := b.runtime.vm.CreateObject(b.imageDataProto)
	b.bindImageData(obj, d)
	return obj
}

// Context2D returns the JavaScript object for ctx, creating it on first
// use.
func (b *CanvasBinder) Context2D(ctx *canvas.Context2D) *goja.Object {
	if obj, ok := b.wrappers[ctx]; ok {
		return obj
	}
	obj := b.runtime.vm.CreateObject(b.contextProto)
	b.bindContext2D(obj, ctx)
	return obj
}

func (b *CanvasBinder) bindOffscreenCanvas(obj *goja.Object, c *canvas.OffscreenCanvas) {
	vm := b.runtime.vm
	b.register(obj, c)

	obj.DefineAccessorProperty("width", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(c.Width())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	obj.DefineAccessorProperty("height", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(c.Height())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	// getContext(contextId)
	obj.Set("getContext", func(call goja.FunctionCall) goja.Value {
		id := ""
		if len(call.Arguments) > 0 {
			id = call.Arguments[0].String()
		}
		ctx := c.GetContext(id)
		if ctx == nil {
			return goja.Null()
		}
		return b.Context2D(ctx)
	})

	// dispose()
	obj.Set("dispose", func(call goja.FunctionCall) goja.Value {
		c.Dispose()
		b.forget(c)
		return goja.Undefined()
	})

	notImplemented := func(method func() error) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			panic(b.throw(method()))
		}
	}
	obj.Set("transferToImageBitmap", notImplemented(c.TransferToImageBitmap))
	obj.Set("addEventListener", notImplemented(func() error {
		return c.AddEventListener("", nil)
	}))
	obj.Set("removeEventListener", notImplemented(func() error {
		return c.RemoveEventListener("", 0)
	}))
	obj.Set("dispatchEvent", notImplemented(func() error {
		return c.DispatchEvent(events.Event{})
	}))
}

// throw converts err into the JavaScript exception scripts see.
func (b *CanvasBinder) throw(err error) *goja.Object {
	vm := b.runtime.vm
	switch {
	case errors.Is(err, canvas.ErrNotImplemented):
		return b.newError(notImplementedMessage)
	case errors.Is(err, canvas.ErrInvalidArgument):
		return vm.NewTypeError("%s", err.Error())
	}
	return vm.NewGoError(err)
}

func (b *CanvasBinder) newError(msg string) *goja.Object {
	vm := b.runtime.vm
	obj, err := vm.New(vm.Get("Error"), vm.ToValue(msg))
	if err != nil {
		return vm.NewGoError(fmt.Errorf("%s: %w", msg, err))
	}
	return obj
}

func invalidArg(msg string) error {
	return fmt.Errorf("%w: %s", canvas.ErrInvalidArgument, msg)
}

// intArg converts args[i] to an int. Missing, undefined and null
// arguments are 0.
func intArg(args []goja.Value, i int) int {
	if i >= len(args) || args[i] == nil || goja.IsUndefined(args[i]) || goja.IsNull(args[i]) {
		return 0
	}
	return int(args[i].ToInteger())
}

// floatArgs converts every argument to a float64.
func floatArgs(args []goja.Value) []float64 {
	out := make([]float64, len(args))
	for i, a := range args {
		out[i] = a.ToFloat()
	}
	return out
}
