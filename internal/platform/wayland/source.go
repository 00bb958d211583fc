// Package wayland is a minimal Wayland client that watches seats through the
// ext-idle-notify-v1 protocol and reports them as idle watcher events.
package wayland

import (
	"context"
	"math"
	"net"
	"time"

	"autologout/internal/core/watcher"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

var (
	// ErrProtocol reports a malformed message or a wl_display error from the compositor.
	ErrProtocol = errors.New("wayland protocol error")
	// ErrNoNotifier means the compositor has not advertised ext_idle_notifier_v1.
	ErrNoNotifier = errors.New("idle notifier not available")
)

const (
	displayID = 1

	displayGetRegistry = 1
	displayError       = 0
	displayDeleteID    = 1

	registryBind         = 0
	registryGlobal       = 0
	registryGlobalRemove = 1

	notifierDestroy             = 0
	notifierGetIdleNotification = 1

	notificationDestroy = 0
	notificationIdled   = 0
	notificationResumed = 1

	seatInterface     = "wl_seat"
	notifierInterface = "ext_idle_notifier_v1"
)

// Source implements watcher.Source on a Wayland connection. It is driven by
// one goroutine; Subscribe is only called from within Dispatch.
type Source struct {
	conn       net.Conn
	logger     logrus.FieldLogger
	nextID     uint32
	registryID uint32
	buf        []byte
	chunk      []byte

	// seats maps a seat's global name to its bound object id.
	seats        map[uint32]uint32
	notifierName uint32
	notifierID   uint32
	// notifications maps a notification object id to the device it watches.
	notifications map[uint32]watcher.DeviceID
	subscriptions map[watcher.DeviceID]uint32
	pending       []watcher.Event
}

// NewSource starts a client on conn by requesting the global registry.
func NewSource(conn net.Conn, logger logrus.FieldLogger) (*Source, error) {
	source := &Source{
		conn:          conn,
		logger:        logger,
		nextID:        displayID + 1,
		chunk:         make([]byte, 4096),
		seats:         make(map[uint32]uint32),
		notifications: make(map[uint32]watcher.DeviceID),
		subscriptions: make(map[watcher.DeviceID]uint32),
	}
	source.registryID = source.allocate()
	if err := source.send(newRequest(displayID, displayGetRegistry).putUint(source.registryID)); err != nil {
		return nil, errors.Wrap(err, "get registry")
	}
	return source, nil
}

// Dial waits for the compositor socket, connects and starts a Source.
func Dial(ctx context.Context, wait time.Duration, logger logrus.FieldLogger) (*Source, error) {
	path, err := SocketPath()
	if err != nil {
		return nil, err
	}
	if err := WaitForSocket(ctx, path, wait); err != nil {
		return nil, err
	}
	var dialer net.Dialer
	conn, err := dialer.DialContext(ctx, "unix", path)
	if err != nil {
		return nil, errors.Wrapf(err, "connect to %s", path)
	}
	logger.WithField("socket", path).Debug("connected to compositor")
	source, err := NewSource(conn, logger)
	if err != nil {
		_ = conn.Close()
		return nil, err
	}
	return source, nil
}

// Dispatch reads from the compositor until at least one watcher event is
// produced. Events reach handler in arrival order, each message's events
// before the next message is applied.
func (source *Source) Dispatch(ctx context.Context, handler watcher.Handler) error {
	if err := source.conn.SetReadDeadline(time.Time{}); err != nil {
		return errors.Wrap(err, "reset read deadline")
	}
	stop := context.AfterFunc(ctx, func() {
		_ = source.conn.SetReadDeadline(time.Now())
	})
	defer stop()

	for {
		messages, err := source.read()
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "read compositor socket")
		}
		delivered := false
		for _, msg := range messages {
			if err := source.handle(msg); err != nil {
				return err
			}
			// Hand events over before the next message can retire the objects they name.
			events := source.pending
			source.pending = nil
			for _, event := range events {
				if err := handler.Handle(event); err != nil {
					return err
				}
				delivered = true
			}
		}
		if delivered {
			return nil
		}
	}
}

// Subscribe creates an idle notification for the seat, destroying any earlier one.
func (source *Source) Subscribe(id watcher.DeviceID, threshold time.Duration) error {
	if source.notifierID == 0 {
		return ErrNoNotifier
	}
	seatID, ok := source.seats[uint32(id)]
	if !ok {
		return errors.Wrapf(watcher.ErrUnknownDevice, "seat %d", id)
	}
	if err := source.unsubscribe(id); err != nil {
		return err
	}

	millis := threshold.Milliseconds()
	if millis > math.MaxUint32 {
		millis = math.MaxUint32
	}
	notificationID := source.allocate()
	req := newRequest(source.notifierID, notifierGetIdleNotification).
		putUint(notificationID).
		putUint(uint32(millis)).
		putUint(seatID)
	if err := source.send(req); err != nil {
		return errors.Wrap(err, "get idle notification")
	}
	source.notifications[notificationID] = id
	source.subscriptions[id] = notificationID
	return nil
}

// Close disconnects from the compositor.
func (source *Source) Close() error {
	return source.conn.Close()
}

func (source *Source) read() ([]message, error) {
	for {
		messages, rest, err := parseMessages(source.buf)
		if err != nil {
			return nil, err
		}
		if len(messages) > 0 {
			source.buf = append([]byte(nil), rest...)
			return messages, nil
		}
		n, err := source.conn.Read(source.chunk)
		if err != nil {
			return nil, err
		}
		source.buf = append(source.buf, source.chunk[:n]...)
	}
}

func (source *Source) handle(msg message) error {
	dec := &decoder{body: msg.body}
	switch {
	case msg.sender == displayID:
		return source.handleDisplay(msg.opcode, dec)
	case msg.sender == source.registryID:
		return source.handleRegistry(msg.opcode, dec)
	}

	if device, ok := source.notifications[msg.sender]; ok {
		switch msg.opcode {
		case notificationIdled:
			source.pending = append(source.pending, watcher.Idled{ID: device})
		case notificationResumed:
			source.pending = append(source.pending, watcher.Resumed{ID: device})
		}
	}
	// Events on seats and the notifier carry nothing the watcher needs.
	return nil
}

func (source *Source) handleDisplay(opcode uint16, dec *decoder) error {
	switch opcode {
	case displayError:
		object := dec.readUint()
		code := dec.readUint()
		text := dec.readString()
		return errors.Wrapf(ErrProtocol, "object %d error %d: %s", object, code, text)
	case displayDeleteID:
		dec.readUint()
	}
	return dec.err
}

func (source *Source) handleRegistry(opcode uint16, dec *decoder) error {
	switch opcode {
	case registryGlobal:
		name := dec.readUint()
		iface := dec.readString()
		version := dec.readUint()
		if dec.err != nil {
			return dec.err
		}
		return source.global(name, iface, version)
	case registryGlobalRemove:
		name := dec.readUint()
		if dec.err != nil {
			return dec.err
		}
		return source.globalRemove(name)
	}
	return nil
}

func (source *Source) global(name uint32, iface string, version uint32) error {
	switch iface {
	case seatInterface:
		id, err := source.bind(name, iface, 1)
		if err != nil {
			return err
		}
		source.seats[name] = id
		source.pending = append(source.pending, watcher.DeviceAdded{
			Device: watcher.Device{ID: watcher.DeviceID(name), Name: iface},
		})
	case notifierInterface:
		if source.notifierID != 0 {
			return nil
		}
		id, err := source.bind(name, iface, 1)
		if err != nil {
			return err
		}
		source.notifierName = name
		source.notifierID = id
		source.pending = append(source.pending, watcher.NotifierAdded{})
	default:
		return nil
	}
	source.logger.WithFields(logrus.Fields{"name": name, "interface": iface, "version": version}).Debug("bound global")
	return nil
}

func (source *Source) globalRemove(name uint32) error {
	if _, ok := source.seats[name]; ok {
		device := watcher.DeviceID(name)
		if err := source.unsubscribe(device); err != nil {
			return err
		}
		delete(source.seats, name)
		source.pending = append(source.pending, watcher.DeviceRemoved{ID: device})
		return nil
	}
	if source.notifierID != 0 && name == source.notifierName {
		if err := source.send(newRequest(source.notifierID, notifierDestroy)); err != nil {
			return errors.Wrap(err, "destroy idle notifier")
		}
		source.notifierID = 0
		source.notifierName = 0
		source.pending = append(source.pending, watcher.NotifierRemoved{})
	}
	return nil
}

func (source *Source) unsubscribe(device watcher.DeviceID) error {
	notificationID, ok := source.subscriptions[device]
	if !ok {
		return nil
	}
	delete(source.subscriptions, device)
	delete(source.notifications, notificationID)
	if err := source.send(newRequest(notificationID, notificationDestroy)); err != nil {
		return errors.Wrap(err, "destroy idle notification")
	}
	return nil
}

func (source *Source) bind(name uint32, iface string, version uint32) (uint32, error) {
	id := source.allocate()
	req := newRequest(source.registryID, registryBind).
		putUint(name).
		putString(iface).
		putUint(version).
		putUint(id)
	if err := source.send(req); err != nil {
		return 0, errors.Wrapf(err, "bind %s", iface)
	}
	return id, nil
}

func (source *Source) allocate() uint32 {
	id := source.nextID
	source.nextID++
	return id
}

func (source *Source) send(req *request) error {
	_, err := source.conn.Write(req.bytes())
	return err
}
