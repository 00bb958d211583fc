// Package countdown turns begin-countdown requests into a live, cancellable
// desktop warning that ends either in cancellation or in expiry.
package countdown

import (
	"context"
	"sync"
	"time"

	"autologout/internal/core/handoff"
	"autologout/internal/core/model"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ErrExpired is returned by Run when a countdown reached zero without being
// cancelled. The caller must perform the session action.
var ErrExpired = errors.New("countdown expired")

const (
	warningIcon    = "data-warning"
	warningSummary = "Still there?"
	warningExpire  = 1100 * time.Millisecond
	cancelIcon     = "data-success"
	cancelSummary  = "Still there!"
	cancelExpire   = 5 * time.Second
)

// Notification is one push to the desktop notification sink.
type Notification struct {
	// ReplacesID updates the notification with that id in place; zero creates a new one.
	ReplacesID uint32
	Icon       string
	Summary    string
	Body       string
	Expire     time.Duration
}

// Notifier pushes desktop notifications and returns the id of the shown message.
type Notifier interface {
	Notify(ctx context.Context, notification Notification) (uint32, error)
}

// Wording supplies notification texts for the pending session action.
type Wording interface {
	WarningBody(seconds int) string
	CancelledBody() string
}

// Receiver yields begin-countdown messages.
type Receiver interface {
	Receive(ctx context.Context) (handoff.Start, error)
}

// Controller runs one countdown at a time.
type Controller struct {
	mu       sync.Mutex
	config   model.CountdownConfig
	notifier Notifier
	wording  Wording
	logger   logrus.FieldLogger
	state    State
	events   []chan Event
}

// New creates a Controller with the provided configuration.
func New(config model.CountdownConfig, notifier Notifier, wording Wording, logger logrus.FieldLogger) *Controller {
	if config.TickInterval <= 0 {
		config.TickInterval = time.Second
	}
	if config.Seconds < 0 {
		config.Seconds = 0
	}
	return &Controller{
		config:   config,
		notifier: notifier,
		wording:  wording,
		logger:   logger,
		state:    StateWaiting,
	}
}

// Subscribe registers a new observer channel. Slow observers miss events.
func (controller *Controller) Subscribe(buffer int) <-chan Event {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan Event, buffer)
	controller.mu.Lock()
	controller.events = append(controller.events, ch)
	controller.mu.Unlock()
	return ch
}

// State returns the current controller state.
func (controller *Controller) State() State {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	return controller.state
}

// Run processes begin-countdown messages one at a time. It returns ErrExpired
// after a countdown runs out, nil once starts is closed, or the context error.
func (controller *Controller) Run(ctx context.Context, starts Receiver) error {
	defer controller.closeObservers()
	for {
		controller.setState(StateWaiting, "")
		start, err := starts.Receive(ctx)
		if err != nil {
			if errors.Is(err, handoff.ErrClosed) {
				return nil
			}
			return err
		}

		expired, err := controller.count(ctx, start)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			controller.logger.WithField("countdown", start.ID).WithError(err).Error("countdown aborted")
			controller.emit(Event{
				Type:      EventNotifyError,
				State:     StateAborted,
				Countdown: start.ID,
				Message:   err.Error(),
				At:        time.Now(),
			})
			controller.setState(StateAborted, start.ID)
			continue
		}
		if expired {
			controller.setState(StateExpired, start.ID)
			return ErrExpired
		}
	}
}

func (controller *Controller) count(ctx context.Context, start handoff.Start) (bool, error) {
	logger := controller.logger.WithField("countdown", start.ID)
	if start.Cancelled() {
		logger.Debug("countdown cancelled before it began")
		return false, nil
	}

	controller.setState(StateCounting, start.ID)
	logger.WithField("seconds", controller.config.Seconds).Info("countdown started")

	var shownID uint32
	for remaining := controller.config.Seconds; remaining > 0; remaining-- {
		var err error
		shownID, err = controller.notifier.Notify(ctx, Notification{
			ReplacesID: shownID,
			Icon:       warningIcon,
			Summary:    warningSummary,
			Body:       controller.wording.WarningBody(remaining),
			Expire:     warningExpire,
		})
		if err != nil {
			return false, errors.Wrap(err, "push countdown notification")
		}
		controller.emit(Event{
			Type:      EventProgress,
			State:     StateCounting,
			Countdown: start.ID,
			Remaining: time.Duration(remaining) * time.Second,
			At:        time.Now(),
		})

		timer := time.NewTimer(controller.config.TickInterval)
		select {
		case <-start.Cancel:
			timer.Stop()
			return false, controller.cancelled(ctx, start.ID, shownID)
		case <-ctx.Done():
			timer.Stop()
			return false, ctx.Err()
		case <-timer.C:
		}
	}

	// A cancel that landed together with the last tick still wins.
	if start.Cancelled() {
		return false, controller.cancelled(ctx, start.ID, shownID)
	}
	logger.Warn("countdown expired")
	return true, nil
}

func (controller *Controller) cancelled(ctx context.Context, countdownID string, shownID uint32) error {
	controller.setState(StateCancelled, countdownID)
	controller.logger.WithField("countdown", countdownID).Info("countdown cancelled")
	_, err := controller.notifier.Notify(ctx, Notification{
		ReplacesID: shownID,
		Icon:       cancelIcon,
		Summary:    cancelSummary,
		Body:       controller.wording.CancelledBody(),
		Expire:     cancelExpire,
	})
	if err != nil {
		return errors.Wrap(err, "push cancel confirmation")
	}
	return nil
}

func (controller *Controller) setState(state State, countdownID string) {
	controller.mu.Lock()
	if controller.state == state {
		controller.mu.Unlock()
		return
	}
	controller.state = state
	controller.emitLocked(Event{
		Type:      EventStateChange,
		State:     state,
		Countdown: countdownID,
		At:        time.Now(),
	})
	controller.mu.Unlock()
}

func (controller *Controller) emit(event Event) {
	controller.mu.Lock()
	defer controller.mu.Unlock()
	controller.emitLocked(event)
}

func (controller *Controller) emitLocked(event Event) {
	for _, ch := range controller.events {
		select {
		case ch <- event:
		default:
		}
	}
}

func (controller *Controller) closeObservers() {
	controller.mu.Lock()
	events := controller.events
	controller.events = nil
	controller.mu.Unlock()

	for _, ch := range events {
		close(ch)
	}
}
