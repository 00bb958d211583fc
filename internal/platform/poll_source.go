package platform

import (
	"context"
	"time"

	"autologout/internal/core/watcher"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// SessionDevice is the single pseudo-device reported by PollSource.
const SessionDevice watcher.DeviceID = 1

// PollSource turns a polled session idle time into Idled/Resumed events for
// one pseudo-device. It is used where no per-seat idle notifier exists.
type PollSource struct {
	provider   IdleProvider
	interval   time.Duration
	logger     logrus.FieldLogger
	announced  bool
	subscribed bool
	threshold  time.Duration
	idle       bool
}

// NewPollSource creates a PollSource sampling provider every interval.
func NewPollSource(provider IdleProvider, interval time.Duration, logger logrus.FieldLogger) *PollSource {
	if interval <= 0 {
		interval = time.Second
	}
	return &PollSource{provider: provider, interval: interval, logger: logger}
}

// Subscribe arms idle notification for the session device.
func (source *PollSource) Subscribe(id watcher.DeviceID, threshold time.Duration) error {
	if id != SessionDevice {
		return errors.Wrapf(watcher.ErrUnknownDevice, "device %d", id)
	}
	source.subscribed = true
	source.threshold = threshold
	source.idle = false
	return nil
}

// Dispatch announces the session device on first use, then blocks until the
// polled idle time crosses the threshold in either direction.
func (source *PollSource) Dispatch(ctx context.Context, handler watcher.Handler) error {
	if !source.announced {
		source.announced = true
		if err := handler.Handle(watcher.NotifierAdded{}); err != nil {
			return err
		}
		return handler.Handle(watcher.DeviceAdded{Device: watcher.Device{ID: SessionDevice, Name: "session"}})
	}

	timer := time.NewTimer(source.interval)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
		}

		idleFor, err := source.provider.IdleDuration()
		if err != nil {
			return errors.Wrap(err, "poll idle time")
		}
		timer.Reset(source.interval)
		if !source.subscribed {
			continue
		}

		idle := idleFor >= source.threshold
		if idle == source.idle {
			continue
		}
		source.idle = idle
		source.logger.WithFields(logrus.Fields{"idle_for": idleFor, "idle": idle}).Debug("session idle state changed")
		if idle {
			return handler.Handle(watcher.Idled{ID: SessionDevice})
		}
		return handler.Handle(watcher.Resumed{ID: SessionDevice})
	}
}

// Close is a no-op; the provider owns no per-source resources.
func (source *PollSource) Close() error {
	return nil
}
