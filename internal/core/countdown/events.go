package countdown

import "time"

// State represents the current controller mode.
type State string

const (
	StateWaiting   State = "waiting"
	StateCounting  State = "counting"
	StateCancelled State = "cancelled"
	StateAborted   State = "aborted"
	StateExpired   State = "expired"
)

// EventType defines the type of controller event.
type EventType string

const (
	EventStateChange EventType = "state_change"
	EventProgress    EventType = "progress"
	EventNotifyError EventType = "notify_error"
)

// Event represents a controller update for observers.
type Event struct {
	Type      EventType
	State     State
	Countdown string
	Remaining time.Duration
	Message   string
	At        time.Time
}
