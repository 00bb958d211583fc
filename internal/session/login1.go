package session

import (
	"context"
	"os"
	"strings"

	"github.com/godbus/dbus/v5"
	"github.com/pkg/errors"
)

// ErrNoSession indicates the process does not belong to a login session.
var ErrNoSession = errors.New("no login session")

const (
	login1Dest             = "org.freedesktop.login1"
	login1Path             = dbus.ObjectPath("/org/freedesktop/login1")
	login1Manager          = "org.freedesktop.login1.Manager"
	login1SessionInterface = "org.freedesktop.login1.Session"
)

// Login1 talks to systemd-logind over the system bus.
type Login1 struct {
	conn    *dbus.Conn
	manager dbus.BusObject
}

// NewLogin1 connects to the system bus.
func NewLogin1() (*Login1, error) {
	conn, err := dbus.ConnectSystemBus()
	if err != nil {
		return nil, errors.Wrap(err, "connect system bus")
	}
	return &Login1{conn: conn, manager: conn.Object(login1Dest, login1Path)}, nil
}

// TerminateSession ends every process of the session.
func (login *Login1) TerminateSession(ctx context.Context, sessionID string) error {
	return login.manager.CallWithContext(ctx, login1Manager+".TerminateSession", 0, sessionID).Err
}

// LockSession asks the session's screen locker to engage.
func (login *Login1) LockSession(ctx context.Context, sessionID string) error {
	return login.manager.CallWithContext(ctx, login1Manager+".LockSession", 0, sessionID).Err
}

// SessionID resolves the id of the session this process runs in.
func (login *Login1) SessionID(ctx context.Context) (string, error) {
	if id := strings.TrimSpace(os.Getenv("XDG_SESSION_ID")); id != "" {
		return id, nil
	}

	var path dbus.ObjectPath
	err := login.manager.CallWithContext(ctx, login1Manager+".GetSessionByPID", 0, uint32(os.Getpid())).Store(&path)
	if err != nil {
		return "", errors.Wrapf(ErrNoSession, "get session by pid: %v", err)
	}
	variant, err := login.conn.Object(login1Dest, path).GetProperty(login1SessionInterface + ".Id")
	if err != nil {
		return "", errors.Wrap(err, "read session id")
	}
	id, ok := variant.Value().(string)
	if !ok || id == "" {
		return "", ErrNoSession
	}
	return id, nil
}

// Close releases the bus connection.
func (login *Login1) Close() error {
	return login.conn.Close()
}
