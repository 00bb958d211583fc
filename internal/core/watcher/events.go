package watcher

import (
	"context"
	"time"

	"autologout/internal/core/handoff"

	"github.com/pkg/errors"
)

// ErrUnknownDevice is returned by Subscribe for a device the source has
// already retired. The watcher forgets such a device instead of failing.
var ErrUnknownDevice = errors.New("unknown device")

// DeviceID is the identity the idle source assigns to a device.
type DeviceID uint32

// Device is a monitored input device (a seat).
type Device struct {
	ID   DeviceID
	Name string
}

// Event is one notification from the idle source. The set of variants is closed.
type Event interface {
	isEvent()
}

// DeviceAdded reports a newly discovered device.
type DeviceAdded struct {
	Device Device
}

// DeviceRemoved reports that a device disappeared.
type DeviceRemoved struct {
	ID DeviceID
}

// NotifierAdded reports that the idle-notification capability became available.
type NotifierAdded struct{}

// NotifierRemoved reports that the idle-notification capability went away.
type NotifierRemoved struct{}

// Idled reports that a device reached the idle threshold.
type Idled struct {
	ID DeviceID
}

// Resumed reports activity on a device after it was idle.
type Resumed struct {
	ID DeviceID
}

func (DeviceAdded) isEvent()     {}
func (DeviceRemoved) isEvent()   {}
func (NotifierAdded) isEvent()   {}
func (NotifierRemoved) isEvent() {}
func (Idled) isEvent()           {}
func (Resumed) isEvent()         {}

// Handler consumes source events. A returned error stops dispatching.
type Handler interface {
	Handle(event Event) error
}

// Subscriber arms idle notification for one device.
type Subscriber interface {
	// Subscribe requests Idled/Resumed events for the device after threshold of
	// inactivity, replacing any earlier subscription for it. It returns an
	// error wrapping ErrUnknownDevice if the device is gone.
	Subscribe(id DeviceID, threshold time.Duration) error
}

// Source is the device registry and idle-notification transport.
type Source interface {
	Subscriber
	// Dispatch blocks until at least one event is available and hands every
	// available event to handler in order.
	Dispatch(ctx context.Context, handler Handler) error
	Close() error
}

// Sender delivers begin-countdown messages to the controller.
type Sender interface {
	Send(start handoff.Start) error
}
