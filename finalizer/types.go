package finalizer

// Token addresses a closure set in an Arena. Token 0 is reserved and
// always invalid.
type Token uintptr

// Closure is native-side state bound to the lifetime of an engine object.
// Release is called exactly once, when the engine finalizes the object.
type Closure interface {
	Release() error
}

// ClosureFunc adapts a plain function to Closure.
type ClosureFunc func() error

// Release calls f.
func (f ClosureFunc) Release() error { return f() }

// Event types for closure set lifecycle notifications.
type EventType uint8

const (
	EventRegistered EventType = iota
	EventFinalized
	EventAbandoned
	EventReleased
)

func (t EventType) String() string {
	switch t {
	case EventRegistered:
		return "registered"
	case EventFinalized:
		return "finalized"
	case EventAbandoned:
		return "abandoned"
	case EventReleased:
		return "released"
	}
	return "unknown"
}

// Event represents a closure set lifecycle event.
type Event struct {
	Err   error
	Token Token
	Count int
	Type  EventType
}

// Observer receives notifications about closure set lifecycle events.
type Observer interface {
	OnFinalizerEvent(Event)
}

// ObserverFunc adapts a function to Observer.
type ObserverFunc func(Event)

// OnFinalizerEvent calls f.
func (f ObserverFunc) OnFinalizerEvent(e Event) { f(e) }
