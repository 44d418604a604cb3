package js

import (
	"sync"

	"github.com/dop251/goja"
)

// task represents a queued callback.
type task struct {
	callback goja.Callable
	args     []goja.Value
}

// eventLoop holds the microtask queue. Image loads complete through the
// canvas Env's loop and timers through the timer manager; runOnce ties the
// JavaScript side of both together.
type eventLoop struct {
	microtasks []task
	mu         sync.Mutex
}

// newEventLoop creates a new event loop.
func newEventLoop() *eventLoop {
	return &eventLoop{}
}

// queueMicrotask adds a microtask to the queue.
// Microtasks are executed before the next timer.
func (el *eventLoop) queueMicrotask(callback goja.Callable, args []goja.Value) {
	el.mu.Lock()
	defer el.mu.Unlock()
	el.microtasks = append(el.microtasks, task{callback: callback, args: args})
}

// drain runs microtasks, including ones queued while draining.
func (el *eventLoop) drain(r *Runtime) {
	for {
		el.mu.Lock()
		if len(el.microtasks) == 0 {
			el.mu.Unlock()
			return
		}
		t := el.microtasks[0]
		el.microtasks = el.microtasks[1:]
		el.mu.Unlock()

		r.call(t.callback, goja.Undefined(), t.args...)
	}
}

// runOnce drains microtasks, runs due timers, then drains the microtasks
// they queued. Returns true if there are more events to process.
func (el *eventLoop) runOnce(r *Runtime) bool {
	el.drain(r)
	r.timers.process(r)
	el.drain(r)
	return el.hasPending() || r.timers.hasPending()
}

// hasPending returns true if there are any pending microtasks.
func (el *eventLoop) hasPending() bool {
	el.mu.Lock()
	defer el.mu.Unlock()
	return len(el.microtasks) > 0
}
