// Package js exposes the canvas shim to JavaScript.
// It uses the goja JavaScript engine (pure Go ES5.1+ implementation).
package js

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/chrisuehlinger/canvashim/canvas"
	"github.com/dop251/goja"
)

// UserAgent is reported as navigator.userAgent.
const UserAgent = "canvashim/1.0"

// Option configures a Runtime.
type Option func(*Runtime)

// WithLogger sets the logger console output is written to.
func WithLogger(l *slog.Logger) Option {
	return func(r *Runtime) {
		r.logger = l
	}
}

// Runtime wraps a goja JavaScript runtime with the canvas globals
// (OffscreenCanvas, Image, ImageData), console and timers installed.
type Runtime struct {
	vm        *goja.Runtime
	env       *canvas.Env
	binder    *CanvasBinder
	console   *goja.Object
	timers    *timerManager
	eventLoop *eventLoop
	logger    *slog.Logger

	mu      sync.Mutex
	errMu   sync.Mutex
	errors  []error
	onError func(error)
}

// NewRuntime creates a JavaScript runtime whose canvas objects live in env.
// A nil env gets a fresh canvas.Env.
func NewRuntime(env *canvas.Env, opts ...Option) *Runtime {
	if env == nil {
		env = canvas.NewEnv()
	}
	r := &Runtime{
		vm:        goja.New(),
		env:       env,
		timers:    newTimerManager(),
		eventLoop: newEventLoop(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}

	r.setupConsole()
	r.setupTimers()
	r.setupWindow()
	r.binder = newCanvasBinder(r)
	r.binder.install()

	return r
}

// VM returns the underlying goja runtime.
func (r *Runtime) VM() *goja.Runtime {
	return r.vm
}

// Env returns the canvas environment scripts draw into.
func (r *Runtime) Env() *canvas.Env {
	return r.env
}

// Binder returns the binder mapping canvas objects to JavaScript objects.
func (r *Runtime) Binder() *CanvasBinder {
	return r.binder
}

// SetOnError sets a callback for JavaScript errors, including exceptions
// thrown by callbacks run from the event loop.
func (r *Runtime) SetOnError(handler func(error)) {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	r.onError = handler
}

func (r *Runtime) reportError(err error) {
	r.errMu.Lock()
	r.errors = append(r.errors, err)
	handler := r.onError
	r.errMu.Unlock()

	r.logger.Warn("js: uncaught error", "error", err)
	if handler != nil {
		handler(err)
	}
}

// Execute runs JavaScript code and returns the result.
func (r *Runtime) Execute(code string) (result goja.Value, err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	// Recover from panics in the goja parser/runtime
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("script execution panic: %v", p)
			r.reportError(err)
		}
	}()

	result, err = r.vm.RunString(code)
	if err != nil {
		r.reportError(err)
	}
	return result, err
}

// ExecuteScript compiles and runs code named src (used in stack traces).
// Scripts are compiled in sloppy mode unless they opt into "use strict".
func (r *Runtime) ExecuteScript(code, src string) (err error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("script compilation panic in %s: %v", src, p)
			r.reportError(err)
		}
	}()

	program, err := goja.Compile(src, code, false)
	if err != nil {
		r.reportError(err)
		return err
	}

	_, err = r.vm.RunProgram(program)
	if err != nil {
		r.reportError(err)
	}
	return err
}

// Errors returns all errors that occurred during execution.
func (r *Runtime) Errors() []error {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	return append([]error{}, r.errors...)
}

// ClearErrors clears the error list.
func (r *Runtime) ClearErrors() {
	r.errMu.Lock()
	defer r.errMu.Unlock()
	r.errors = r.errors[:0]
}

// call invokes a JavaScript callback, reporting anything it throws.
func (r *Runtime) call(fn goja.Callable, this goja.Value, args ...goja.Value) {
	defer func() {
		if p := recover(); p != nil {
			r.reportError(fmt.Errorf("callback panic: %v", p))
		}
	}()
	if _, err := fn(this, args...); err != nil {
		r.reportError(err)
	}
}

// RunEventLoop drains microtasks and runs due timers once.
// Returns true if there are more events to process.
func (r *Runtime) RunEventLoop() bool {
	return r.eventLoop.runOnce(r)
}

// ProcessTimers checks and executes any due timers.
func (r *Runtime) ProcessTimers() {
	r.timers.process(r)
}

// HasPendingWork returns true if timers, microtasks or image loads are
// waiting.
func (r *Runtime) HasPendingWork() bool {
	return r.timers.hasPending() || r.eventLoop.hasPending() || r.env.Loop().Pending()
}

// Run drives the event loop on the calling goroutine: image load
// completions, microtasks and timers run until nothing is pending or ctx is
// done. An interval that is never cleared keeps Run going until ctx ends.
func (r *Runtime) Run(ctx context.Context) error {
	loop := r.env.Loop()
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		loop.RunPending()
		r.RunEventLoop()
		if !r.HasPendingWork() {
			return nil
		}
		if r.eventLoop.hasPending() {
			continue
		}

		var wait time.Duration
		if r.timers.hasPending() {
			wait = r.timers.nextDueTime()
			if wait == 0 {
				continue
			}
		}
		if err := loop.Wait(ctx, wait); err != nil {
			return err
		}
	}
}

// setupConsole creates the console object. Output goes to the runtime's
// logger at the matching level.
func (r *Runtime) setupConsole() {
	console := r.vm.NewObject()

	logAt := func(level slog.Level) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			r.logger.Log(context.Background(), level, formatArgs(call.Arguments), "source", "console")
			return goja.Undefined()
		}
	}

	console.Set("log", logAt(slog.LevelInfo))
	console.Set("info", logAt(slog.LevelInfo))
	console.Set("warn", logAt(slog.LevelWarn))
	console.Set("error", logAt(slog.LevelError))
	console.Set("debug", logAt(slog.LevelDebug))
	console.Set("trace", logAt(slog.LevelDebug))

	console.Set("assert", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) == 0 || !call.Arguments[0].ToBoolean() {
			msg := "Assertion failed"
			if len(call.Arguments) > 1 {
				msg += ": " + formatArgs(call.Arguments[1:])
			}
			r.logger.Error(msg, "source", "console")
		}
		return goja.Undefined()
	})

	counts := make(map[string]int)
	console.Set("count", func(call goja.FunctionCall) goja.Value {
		label := labelArg(call)
		counts[label]++
		r.logger.Info(fmt.Sprintf("%s: %d", label, counts[label]), "source", "console")
		return goja.Undefined()
	})
	console.Set("countReset", func(call goja.FunctionCall) goja.Value {
		delete(counts, labelArg(call))
		return goja.Undefined()
	})

	times := make(map[string]time.Time)
	console.Set("time", func(call goja.FunctionCall) goja.Value {
		times[labelArg(call)] = time.Now()
		return goja.Undefined()
	})
	console.Set("timeLog", func(call goja.FunctionCall) goja.Value {
		label := labelArg(call)
		if start, ok := times[label]; ok {
			r.logger.Info(fmt.Sprintf("%s: %v", label, time.Since(start)), "source", "console")
		}
		return goja.Undefined()
	})
	console.Set("timeEnd", func(call goja.FunctionCall) goja.Value {
		label := labelArg(call)
		if start, ok := times[label]; ok {
			r.logger.Info(fmt.Sprintf("%s: %v", label, time.Since(start)), "source", "console")
			delete(times, label)
		}
		return goja.Undefined()
	})

	r.console = console
	r.vm.Set("console", console)
}

func labelArg(call goja.FunctionCall) string {
	if len(call.Arguments) > 0 {
		return call.Arguments[0].String()
	}
	return "default"
}

// setupTimers creates setTimeout, setInterval, clearTimeout, clearInterval.
func (r *Runtime) setupTimers() {
	schedule := func(repeat bool) func(goja.FunctionCall) goja.Value {
		return func(call goja.FunctionCall) goja.Value {
			if len(call.Arguments) < 1 {
				return goja.Undefined()
			}
			callback, ok := goja.AssertFunction(call.Arguments[0])
			if !ok {
				return goja.Undefined()
			}

			delay := int64(0)
			if len(call.Arguments) > 1 {
				delay = call.Arguments[1].ToInteger()
			}
			if delay < 0 {
				delay = 0
			}

			var args []goja.Value
			if len(call.Arguments) > 2 {
				args = call.Arguments[2:]
			}

			if repeat {
				// Minimum interval of 4ms per HTML spec
				delay = max(delay, 4)
				return r.vm.ToValue(r.timers.setInterval(callback, time.Duration(delay)*time.Millisecond, args))
			}
			return r.vm.ToValue(r.timers.setTimeout(callback, time.Duration(delay)*time.Millisecond, args))
		}
	}

	cancel := func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) > 0 {
			r.timers.clearTimer(int(call.Arguments[0].ToInteger()))
		}
		return goja.Undefined()
	}

	r.vm.Set("setTimeout", schedule(false))
	r.vm.Set("setInterval", schedule(true))
	r.vm.Set("clearTimeout", cancel)
	r.vm.Set("clearInterval", cancel)

	// requestAnimationFrame approximates 60fps with a 16ms timeout.
	r.vm.Set("requestAnimationFrame", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}
		callback, ok := goja.AssertFunction(call.Arguments[0])
		if !ok {
			return goja.Undefined()
		}
		timestamp := float64(time.Now().UnixNano()) / 1e6
		id := r.timers.setTimeout(callback, 16*time.Millisecond, []goja.Value{r.vm.ToValue(timestamp)})
		return r.vm.ToValue(id)
	})
	r.vm.Set("cancelAnimationFrame", cancel)
}

// setupWindow makes the global object available as window, self and
// globalThis and adds the few worker-scope globals scripts probe for.
func (r *Runtime) setupWindow() {
	window := r.vm.GlobalObject()

	r.vm.Set("window", window)
	r.vm.Set("self", window)
	r.vm.Set("globalThis", window)

	navigator := r.vm.NewObject()
	navigator.Set("userAgent", UserAgent)
	navigator.Set("language", "en-US")
	navigator.Set("languages", []string{"en-US", "en"})
	navigator.Set("onLine", false)
	r.vm.Set("navigator", navigator)

	r.vm.Set("devicePixelRatio", 1.0)

	performance := r.vm.NewObject()
	startTime := time.Now()
	performance.Set("now", func(call goja.FunctionCall) goja.Value {
		return r.vm.ToValue(float64(time.Since(startTime).Nanoseconds()) / 1e6)
	})
	performance.Set("timeOrigin", float64(startTime.UnixNano())/1e6)
	r.vm.Set("performance", performance)

	r.vm.Set("queueMicrotask", func(call goja.FunctionCall) goja.Value {
		if len(call.Arguments) < 1 {
			return goja.Undefined()
		}
		callback, ok := goja.AssertFunction(call.Arguments[0])
		if !ok {
			panic(r.vm.NewTypeError("queueMicrotask: argument is not a function"))
		}
		r.eventLoop.queueMicrotask(callback, nil)
		return goja.Undefined()
	})
}

// formatArgs formats function call arguments for console output.
func formatArgs(args []goja.Value) string {
	parts := make([]string, len(args))
	for i, arg := range args {
		parts[i] = formatValue(arg)
	}
	return strings.Join(parts, " ")
}

// formatValue formats a single value for output.
func formatValue(v goja.Value) string {
	if v == nil || goja.IsUndefined(v) {
		return "undefined"
	}
	if goja.IsNull(v) {
		return "null"
	}
	return v.String()
}
