package notify

import (
	"context"
	"testing"
	"time"

	"autologout/internal/core/countdown"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeCaller struct {
	method string
	args   []interface{}
	reply  *dbus.Call
}

func (caller *fakeCaller) CallWithContext(_ context.Context, method string, _ dbus.Flags, args ...interface{}) *dbus.Call {
	caller.method = method
	caller.args = args
	return caller.reply
}

func TestNotifySendsFreedesktopArguments(t *testing.T) {
	caller := &fakeCaller{reply: &dbus.Call{Body: []interface{}{uint32(42)}}}
	sink := NewWithCaller(caller, "")

	id, err := sink.Notify(context.Background(), countdown.Notification{
		ReplacesID: 41,
		Icon:       "data-warning",
		Summary:    "Still there?",
		Body:       "Logging you out in 9 seconds...",
		Expire:     1100 * time.Millisecond,
	})
	require.NoError(t, err)
	assert.Equal(t, uint32(42), id)

	assert.Equal(t, "org.freedesktop.Notifications.Notify", caller.method)
	require.Len(t, caller.args, 8)
	assert.Equal(t, "Auto Logout", caller.args[0])
	assert.Equal(t, uint32(41), caller.args[1])
	assert.Equal(t, "data-warning", caller.args[2])
	assert.Equal(t, "Still there?", caller.args[3])
	assert.Equal(t, "Logging you out in 9 seconds...", caller.args[4])
	assert.Equal(t, int32(1100), caller.args[7])
}

func TestNotifyReportsCallError(t *testing.T) {
	caller := &fakeCaller{reply: &dbus.Call{Err: errors.New("name has no owner")}}
	sink := NewWithCaller(caller, "Auto Logout")

	_, err := sink.Notify(context.Background(), countdown.Notification{Summary: "Still there?"})
	require.ErrorContains(t, err, "name has no owner")
	require.NoError(t, sink.Close())
}
