// Package notify pushes desktop notifications through the freedesktop
// Notifications service on the session bus.
package notify

import (
	"context"

	"autologout/internal/core/countdown"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
)

const (
	notificationsDest  = "org.freedesktop.Notifications"
	notificationsPath  = dbus.ObjectPath("/org/freedesktop/Notifications")
	notifyMethod       = "org.freedesktop.Notifications.Notify"
	DefaultApplication = "Auto Logout"
)

// Caller is the subset of a D-Bus object the sink needs.
type Caller interface {
	CallWithContext(ctx context.Context, method string, flags dbus.Flags, args ...interface{}) *dbus.Call
}

// Sink sends notifications. Pushing with a ReplacesID updates that message in place.
type Sink struct {
	conn    *dbus.Conn
	object  Caller
	appName string
}

// New connects to the session bus.
func New(appName string) (*Sink, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, errors.Wrap(err, "connect session bus")
	}
	sink := NewWithCaller(conn.Object(notificationsDest, notificationsPath), appName)
	sink.conn = conn
	return sink, nil
}

// NewWithCaller builds a sink on an existing object.
func NewWithCaller(object Caller, appName string) *Sink {
	if appName == "" {
		appName = DefaultApplication
	}
	return &Sink{object: object, appName: appName}
}

// Notify shows or replaces a notification and returns its id.
func (sink *Sink) Notify(ctx context.Context, notification countdown.Notification) (uint32, error) {
	var id uint32
	call := sink.object.CallWithContext(ctx, notifyMethod, 0,
		sink.appName,
		notification.ReplacesID,
		notification.Icon,
		notification.Summary,
		notification.Body,
		[]string{},
		map[string]dbus.Variant{},
		int32(notification.Expire.Milliseconds()),
	)
	if err := call.Store(&id); err != nil {
		return 0, errors.Wrap(err, "notify")
	}
	return id, nil
}

// Close releases the bus connection, if the sink owns one.
func (sink *Sink) Close() error {
	if sink.conn == nil {
		return nil
	}
	return sink.conn.Close()
}
