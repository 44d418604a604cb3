package js

import (
	"github.com/chrisuehlinger/canvashim/canvas"
	"github.com/chrisuehlinger/canvashim/events"
	"github.com/dop251/goja"
)

// imageHandlers tracks the JavaScript functions attached to one Image so
// that onload/onerror read back what was assigned and removeEventListener
// can find the Go listener it added.
type imageHandlers struct {
	onload    goja.Value
	onerror   goja.Value
	listeners map[string]map[*goja.Object]events.ListenerID
}

func (b *CanvasBinder) bindImage(obj *goja.Object, img *canvas.Image) {
	vm := b.runtime.vm
	b.attach(obj, img)

	h := &imageHandlers{
		onload:    goja.Null(),
		onerror:   goja.Null(),
		listeners: make(map[string]map[*goja.Object]events.ListenerID),
	}

	// src
	obj.DefineAccessorProperty("src", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(img.Src())
	}), vm.ToValue(func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			img.SetSrc(call.Arguments[0].String())
		}
		return goja.Undefined()
	}), goja.FLAG_FALSE, goja.FLAG_TRUE)

	// width
	obj.DefineAccessorProperty("width", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(img.Width())
	}), vm.ToValue(func(call goja.FunctionCall) goja.Value {
		img.SetWidth(intArg(call.Arguments, 0))
		return goja.Undefined()
	}), goja.FLAG_FALSE, goja.FLAG_TRUE)

	// height
	obj.DefineAccessorProperty("height", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(img.Height())
	}), vm.ToValue(func(call goja.FunctionCall) goja.Value {
		img.SetHeight(intArg(call.Arguments, 0))
		return goja.Undefined()
	}), goja.FLAG_FALSE, goja.FLAG_TRUE)

	obj.DefineAccessorProperty("naturalWidth", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(img.NaturalWidth())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	obj.DefineAccessorProperty("naturalHeight", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(img.NaturalHeight())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	obj.DefineAccessorProperty("complete", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return vm.ToValue(img.Complete())
	}), nil, goja.FLAG_FALSE, goja.FLAG_TRUE)

	// onload
	obj.DefineAccessorProperty("onload", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return h.onload
	}), vm.ToValue(func(call goja.FunctionCall) goja.Value {
		fn, v := b.handlerArg(call.Arguments)
		h.onload = v
		img.SetOnLoad(b.listener(obj, fn))
		return goja.Undefined()
	}), goja.FLAG_FALSE, goja.FLAG_TRUE)

	// onerror
	obj.DefineAccessorProperty("onerror", vm.ToValue(func(call goja.FunctionCall) goja.Value {
		return h.onerror
	}), vm.ToValue(func(call goja.FunctionCall) goja.Value {
		fn, v := b.handlerArg(call.Arguments)
		h.onerror = v
		img.SetOnError(b.listener(obj, fn))
		return goja.Undefined()
	}), goja.FLAG_FALSE, goja.FLAG_TRUE)

	// addEventListener(type, listener)
	obj.Set("addEventListener", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			return goja.Undefined()
		}
		typ := call.Arguments[0].String()
		fnObj, ok := call.Arguments[1].(*goja.Object)
		if !ok {
			return goja.Undefined()
		}
		fn, ok := goja.AssertFunction(fnObj)
		if !ok {
			return goja.Undefined()
		}
		if h.listeners[typ] == nil {
			h.listeners[typ] = make(map[*goja.Object]events.ListenerID)
		}
		if _, dup := h.listeners[typ][fnObj]; dup {
			return goja.Undefined()
		}
		h.listeners[typ][fnObj] = img.AddListener(typ, b.listener(obj, fn))
		return goja.Undefined()
	})

	// removeEventListener(type, listener)
	obj.Set("removeEventListener", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 2 {
			return goja.Undefined()
		}
		typ := call.Arguments[0].String()
		fnObj, ok := call.Arguments[1].(*goja.Object)
		if !ok {
			return goja.Undefined()
		}
		if id, ok := h.listeners[typ][fnObj]; ok {
			img.RemoveListener(typ, id)
			delete(h.listeners[typ], fnObj)
		}
		return goja.Undefined()
	})
}

// handlerArg returns the callable assigned to an on* property and the value
// the property reads back: the function itself, or null for anything else.
func (b *CanvasBinder) handlerArg(args []goja.Value) (goja.Callable, goja.Value) {
	if len(args) == 0 {
		return nil, goja.Null()
	}
	fn, ok := goja.AssertFunction(args[0])
	if !ok {
		return nil, goja.Null()
	}
	return fn, args[0]
}

// listener adapts a JavaScript event handler to an events.Listener. The
// handler is called with this set to target and an event object carrying
// type, target and, for errors, error and message.
func (b *CanvasBinder) listener(target *goja.Object, fn goja.Callable) events.Listener {
	if fn == nil {
		return nil
	}
	vm := b.runtime.vm
	return func(ev events.Event) {
		e := vm.NewObject()
		e.Set("type", ev.Type)
		e.Set("target", target)
		if ev.Err != nil {
			e.Set("error", vm.NewGoError(ev.Err))
			e.Set("message", ev.Err.Error())
		}
		b.runtime.call(fn, target, e)
	}
}
