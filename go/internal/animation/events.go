package animation

// EventKind names something the engine did
type EventKind string

const (
	EventStarted     EventKind = "started"
	EventFrame       EventKind = "frame"
	EventTickSkipped EventKind = "tick_skipped"
	EventPaused      EventKind = "paused"
	EventResumed     EventKind = "resumed"
	EventSkipped     EventKind = "skipped"
	EventReset       EventKind = "reset"
)

// Event carries the state right after the engine acted
type Event struct {
	Kind  EventKind
	State State
}

// Observer is called outside the engine lock, possibly from timer goroutines
type Observer func(Event)
