package events

// SlotState is the state of a Slot.
type SlotState int

const (
	// SlotUnset holds no handler.
	SlotUnset SlotState = iota
	// SlotSubscribed has its handler registered on the emitter.
	SlotSubscribed
	// SlotFired ran its handler immediately because the event had already
	// happened. The handler is not subscribed.
	SlotFired
)

func (s SlotState) String() string {
	switch s {
	case SlotSubscribed:
		return "subscribed"
	case SlotFired:
		return "fired"
	}
	return "unset"
}

// Slot is a single replaceable handler for one event type, the model of an
// on<event> property. Setting a new handler always unsubscribes the previous
// one first.
type Slot struct {
	emitter   *Emitter
	eventType string

	fn    Listener
	id    ListenerID
	state SlotState
}

// NewSlot creates an unset slot for eventType on em.
func NewSlot(em *Emitter, eventType string) *Slot {
	return &Slot{emitter: em, eventType: eventType}
}

// Set replaces the handler. A nil fn leaves the slot unset. When fired is
// non-nil the event has already happened: fn is called with it once,
// synchronously, and is not subscribed. Otherwise fn is subscribed for the
// next emissions.
func (s *Slot) Set(fn Listener, fired *Event) {
	if s.state == SlotSubscribed {
		s.emitter.RemoveListener(s.eventType, s.id)
	}
	s.fn = fn
	s.id = 0
	s.state = SlotUnset
	if fn == nil {
		return
	}
	if fired != nil {
		s.state = SlotFired
		fn(*fired)
		return
	}
	s.id = s.emitter.AddListener(s.eventType, fn)
	s.state = SlotSubscribed
}

// Handler returns the current handler, or nil.
func (s *Slot) Handler() Listener {
	return s.fn
}

// State returns the slot state.
func (s *Slot) State() SlotState {
	return s.state
}
