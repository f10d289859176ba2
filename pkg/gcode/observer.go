package gcode

// EventKind identifies what happened in the Sender.
type EventKind int

// Sender events.
const (
	// EventReset is emitted when the reset frame is sent.
	EventReset EventKind = iota
	// EventFrame is emitted when a command frame is sent.
	EventFrame
	// EventControllerReset is emitted when the controller restarted.
	EventControllerReset
	// EventResend is emitted when the controller asked for a resend.
	EventResend
	// EventDone is emitted once no command is left.
	EventDone
)

var eventKindNames = [...]string{
	EventReset:           "reset",
	EventFrame:           "frame",
	EventControllerReset: "controller-reset",
	EventResend:          "resend",
	EventDone:            "done",
}

// String implements fmt.Stringer.
func (k EventKind) String() string {
	if k >= 0 && int(k) < len(eventKindNames) {
		return eventKindNames[k]
	}
	return "unknown"
}

// Progress describes how far the transfer has gone.
type Progress struct {
	// Consumed is the number of source bytes already sent.
	Consumed int
	// Total is the size of the source.
	Total int
	// Line is the last line number used.
	Line uint32
	// Frames is the number of command frames sent, including resends.
	Frames int
	Done   bool
}

// Event is passed to Observers.
type Event struct {
	Kind     EventKind
	Line     uint32
	Payload  []byte // the command for EventFrame, only valid during the call
	Progress Progress
}

// Observer is notified about Sender events.
// It's called on the event loop and must not block.
type Observer interface {
	Observe(Event)
}

// ObserveFunc is func type of Observer.
type ObserveFunc func(Event)

// Observe implements Observer.
func (f ObserveFunc) Observe(ev Event) {
	f(ev)
}

// Observers dispatches events to multiple Observers.
type Observers []Observer

// Observe implements Observer.
func (o Observers) Observe(ev Event) {
	for _, observer := range o {
		observer.Observe(ev)
	}
}
