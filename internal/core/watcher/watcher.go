// Package watcher aggregates per-device idle state into one global idle
// signal and starts or cancels the countdown accordingly.
package watcher

import (
	"context"

	"autologout/internal/core/handoff"
	"autologout/internal/core/model"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrOutstandingCountdown means a second countdown was about to start while
// one is still outstanding.
var ErrOutstandingCountdown = errors.New("countdown already outstanding")

// Watcher is the idle aggregator. It is driven by a single dispatch loop and
// is not safe for concurrent use.
type Watcher struct {
	config   model.WatcherConfig
	source   Source
	starts   Sender
	logger   logrus.FieldLogger
	devices  map[DeviceID]Device
	idle     map[DeviceID]struct{}
	notifier bool
	// cancel is set only by beginCountdown and cleared only by resumed.
	cancel *handoff.Canceller
}

// New creates a Watcher reading from source and sending countdown requests to starts.
func New(config model.WatcherConfig, source Source, starts Sender, logger logrus.FieldLogger) *Watcher {
	return &Watcher{
		config:  config,
		source:  source,
		starts:  starts,
		logger:  logger,
		devices: make(map[DeviceID]Device),
		idle:    make(map[DeviceID]struct{}),
	}
}

// Run dispatches source events until the source fails or ctx ends.
func (watcher *Watcher) Run(ctx context.Context) error {
	for {
		if err := watcher.source.Dispatch(ctx, watcher); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return errors.Wrap(err, "dispatch idle events")
		}
	}
}

// Handle applies one source event.
func (watcher *Watcher) Handle(event Event) error {
	switch event := event.(type) {
	case DeviceAdded:
		return watcher.deviceAdded(event.Device)
	case DeviceRemoved:
		return watcher.deviceRemoved(event.ID)
	case NotifierAdded:
		return watcher.notifierAdded()
	case NotifierRemoved:
		watcher.notifier = false
		watcher.logger.Warn("idle notifier removed, idle events will stop")
	case Idled:
		return watcher.idled(event.ID)
	case Resumed:
		watcher.resumed(event.ID)
	}
	return nil
}

// GlobalIdle reports whether every known device is idle and at least one is known.
func (watcher *Watcher) GlobalIdle() bool {
	if len(watcher.devices) == 0 {
		return false
	}
	for id := range watcher.devices {
		if _, ok := watcher.idle[id]; !ok {
			return false
		}
	}
	return true
}

// Outstanding reports whether a countdown was started and not yet cancelled.
func (watcher *Watcher) Outstanding() bool {
	return watcher.cancel != nil
}

// Devices returns the number of known devices.
func (watcher *Watcher) Devices() int {
	return len(watcher.devices)
}

// IdleDevices returns the number of devices currently idle.
func (watcher *Watcher) IdleDevices() int {
	return len(watcher.idle)
}

func (watcher *Watcher) deviceAdded(device Device) error {
	watcher.devices[device.ID] = device
	if err := watcher.subscribe(device.ID); err != nil {
		if errors.Is(err, ErrUnknownDevice) {
			watcher.forget(device.ID)
			return nil
		}
		return err
	}
	watcher.logger.WithFields(logrus.Fields{"device": device.ID, "name": device.Name}).Info("device added")

	// A fresh device counts as active.
	watcher.resumed(device.ID)
	return nil
}

func (watcher *Watcher) deviceRemoved(id DeviceID) error {
	if _, ok := watcher.devices[id]; !ok {
		return nil
	}
	delete(watcher.devices, id)
	delete(watcher.idle, id)
	watcher.logger.WithField("device", id).Info("device removed")
	return watcher.maybeBeginCountdown()
}

func (watcher *Watcher) notifierAdded() error {
	watcher.notifier = true
	forgotten := false
	for id := range watcher.devices {
		if err := watcher.subscribe(id); err != nil {
			if errors.Is(err, ErrUnknownDevice) {
				watcher.forget(id)
				forgotten = true
				continue
			}
			return err
		}
	}
	watcher.logger.WithField("devices", len(watcher.devices)).Debug("idle notifier available")
	if forgotten {
		return watcher.maybeBeginCountdown()
	}
	return nil
}

// forget drops a device the source no longer knows.
func (watcher *Watcher) forget(id DeviceID) {
	delete(watcher.devices, id)
	delete(watcher.idle, id)
	watcher.logger.WithField("device", id).Debug("device vanished before it could be watched")
}

func (watcher *Watcher) idled(id DeviceID) error {
	if _, ok := watcher.devices[id]; !ok {
		watcher.logger.WithField("device", id).Debug("idle event for unknown device")
		return nil
	}
	watcher.idle[id] = struct{}{}
	watcher.logger.WithFields(logrus.Fields{
		"device": id,
		"idle":   len(watcher.idle),
		"total":  len(watcher.devices),
	}).Debug("device idled")
	return watcher.maybeBeginCountdown()
}

func (watcher *Watcher) resumed(id DeviceID) {
	delete(watcher.idle, id)
	if watcher.cancel == nil {
		return
	}
	watcher.cancel.Cancel()
	watcher.cancel = nil
	watcher.logger.WithField("device", id).Info("activity detected, countdown cancelled")
}

func (watcher *Watcher) maybeBeginCountdown() error {
	if watcher.cancel != nil || !watcher.GlobalIdle() {
		return nil
	}
	return watcher.beginCountdown()
}

func (watcher *Watcher) beginCountdown() error {
	if watcher.cancel != nil {
		return ErrOutstandingCountdown
	}
	start, canceller := handoff.NewStart()
	if err := watcher.starts.Send(start); err != nil {
		if errors.Is(err, handoff.ErrClosed) {
			// The controller is gone and the session action is under way.
			watcher.logger.WithField("countdown", start.ID).Debug("countdown not started, controller stopped")
			return nil
		}
		return errors.Wrap(err, "send countdown start")
	}
	watcher.cancel = canceller
	watcher.logger.WithFields(logrus.Fields{
		"countdown": start.ID,
		"devices":   len(watcher.devices),
	}).Info("all devices idle, countdown started")
	return nil
}

func (watcher *Watcher) subscribe(id DeviceID) error {
	if !watcher.notifier {
		return nil
	}
	if err := watcher.source.Subscribe(id, watcher.config.IdleThreshold); err != nil {
		return errors.Wrapf(err, "subscribe device %d", id)
	}
	return nil
}
