package host

// Event is the kind of instrumentation event delivered to a Hook.
type Event uint8

const (
	// EventCall fires when a routine (function, module body, class body) is entered.
	EventCall Event = iota + 1
	// EventReturn fires when a routine exits, normally or by unwinding.
	EventReturn
	// EventLine fires before a statement executes.
	EventLine
	// EventNativeCall fires before a host-implemented routine runs.
	EventNativeCall
	// EventNativeReturn fires after a host-implemented routine finished.
	EventNativeReturn
)

// String returns the string representation of Event.
func (e Event) String() string {
	switch e {
	case EventCall:
		return "call"
	case EventReturn:
		return "return"
	case EventLine:
		return "line"
	case EventNativeCall:
		return "native_call"
	case EventNativeReturn:
		return "native_return"
	default:
		return "unknown"
	}
}

// Normalize folds native events into the interpreted categories.
func (e Event) Normalize() Event {
	switch e {
	case EventNativeCall:
		return EventCall
	case EventNativeReturn:
		return EventReturn
	default:
		return e
	}
}

// Hook receives instrumentation events. It runs synchronously on the thread
// that executes the traced program; the program resumes when it returns.
// arg is the returned value for return events and nil otherwise.
type Hook func(fr *Frame, ev Event, arg Value)
