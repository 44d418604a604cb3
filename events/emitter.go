// Package events provides the publish/subscribe and scheduling primitives
// shared by the canvas shim: a named-event Emitter, a single-handler Slot
// for on<event> style properties, and a cooperative Loop that runs
// completions on one goroutine.
package events

import (
	"sync"
)

// Event is delivered to listeners by Emit.
type Event struct {
	Type   string
	Target any
	// Err is set for error events.
	Err error
}

// Listener handles an emitted event.
type Listener func(Event)

// ListenerID identifies a registered listener for removal.
type ListenerID uint64

type listener struct {
	id ListenerID
	fn Listener
}

// Emitter manages listeners for named events.
type Emitter struct {
	listeners map[string][]listener
	nextID    ListenerID
	mu        sync.RWMutex
}

// NewEmitter creates an emitter with no listeners.
func NewEmitter() *Emitter {
	return &Emitter{
		listeners: make(map[string][]listener),
	}
}

// AddListener registers fn for eventType and returns its ID.
func (e *Emitter) AddListener(eventType string, fn Listener) ListenerID {
	e.mu.Lock()
	defer e.mu.Unlock()

	e.nextID++
	e.listeners[eventType] = append(e.listeners[eventType], listener{id: e.nextID, fn: fn})
	return e.nextID
}

// RemoveListener unregisters the listener with the given ID. It reports
// whether the listener was found.
func (e *Emitter) RemoveListener(eventType string, id ListenerID) bool {
	e.mu.Lock()
	defer e.mu.Unlock()

	listeners := e.listeners[eventType]
	for i, l := range listeners {
		if l.id == id {
			e.listeners[eventType] = append(listeners[:i:i], listeners[i+1:]...)
			if len(e.listeners[eventType]) == 0 {
				delete(e.listeners, eventType)
			}
			return true
		}
	}
	return false
}

// Emit calls every listener registered for ev.Type, in registration order,
// and returns how many were called. Listeners added or removed during
// dispatch take effect on the next Emit.
func (e *Emitter) Emit(ev Event) int {
	e.mu.RLock()
	listeners := make([]listener, len(e.listeners[ev.Type]))
	copy(listeners, e.listeners[ev.Type])
	e.mu.RUnlock()

	for _, l := range listeners {
		l.fn(ev)
	}
	return len(listeners)
}

// ListenerCount returns the number of listeners for eventType.
func (e *Emitter) ListenerCount(eventType string) int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.listeners[eventType])
}
