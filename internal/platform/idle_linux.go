//go:build linux

package platform

import (
	"context"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
)

const (
	screenSaverDest   = "org.freedesktop.ScreenSaver"
	screenSaverPath   = dbus.ObjectPath("/org/freedesktop/ScreenSaver")
	screenSaverMethod = "org.freedesktop.ScreenSaver.GetSessionIdleTime"
	screenSaverCall   = 2 * time.Second
)

type screenSaverProvider struct {
	object dbus.BusObject
}

type xprintidleProvider struct {
	xprintidlePath string
}

type unsupportedIdleProvider struct{}

func newIdleProvider() IdleProvider {
	if provider, err := newScreenSaverProvider(); err == nil {
		return provider
	}
	path, err := exec.LookPath("xprintidle")
	if err != nil {
		return unsupportedIdleProvider{}
	}
	return &xprintidleProvider{xprintidlePath: path}
}

func newScreenSaverProvider() (*screenSaverProvider, error) {
	conn, err := dbus.ConnectSessionBus()
	if err != nil {
		return nil, errors.Wrap(err, "connect session bus")
	}
	provider := &screenSaverProvider{object: conn.Object(screenSaverDest, screenSaverPath)}
	if _, err := provider.IdleDuration(); err != nil {
		_ = conn.Close()
		return nil, err
	}
	return provider, nil
}

// IdleDuration asks the session's screensaver service for the idle time in seconds.
func (provider *screenSaverProvider) IdleDuration() (time.Duration, error) {
	ctx, cancel := context.WithTimeout(context.Background(), screenSaverCall)
	defer cancel()

	var seconds uint32
	if err := provider.object.CallWithContext(ctx, screenSaverMethod, 0).Store(&seconds); err != nil {
		return 0, errors.Wrap(err, "get session idle time")
	}
	return time.Duration(seconds) * time.Second, nil
}

func (provider *xprintidleProvider) IdleDuration() (time.Duration, error) {
	sessionType := strings.ToLower(os.Getenv("XDG_SESSION_TYPE"))
	if sessionType == "wayland" && os.Getenv("DISPLAY") == "" {
		return 0, ErrIdleUnsupported
	}
	output, err := exec.Command(provider.xprintidlePath).Output()
	if err != nil {
		return 0, errors.Wrap(err, "xprintidle")
	}
	return parseIdleMillis(string(output))
}

func (unsupportedIdleProvider) IdleDuration() (time.Duration, error) {
	return 0, ErrIdleUnsupported
}

func parseIdleMillis(output string) (time.Duration, error) {
	idleMillis, err := strconv.ParseInt(strings.TrimSpace(output), 10, 64)
	if err != nil {
		return 0, errors.Wrap(err, "parse idle milliseconds")
	}
	if idleMillis < 0 {
		idleMillis = 0
	}
	return time.Duration(idleMillis) * time.Millisecond, nil
}
