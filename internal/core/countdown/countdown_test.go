package countdown

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"autologout/internal/core/handoff"
	"autologout/internal/core/model"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testWording struct{}

func (testWording) WarningBody(seconds int) string {
	return fmt.Sprintf("Logging you out in %d seconds...", seconds)
}

func (testWording) CancelledBody() string {
	return "Logging out has been canceled."
}

type recordingNotifier struct {
	mu     sync.Mutex
	pushed []Notification
	hook   func(index int, notification Notification) error
}

func (notifier *recordingNotifier) Notify(_ context.Context, notification Notification) (uint32, error) {
	notifier.mu.Lock()
	index := len(notifier.pushed)
	notifier.pushed = append(notifier.pushed, notification)
	hook := notifier.hook
	notifier.mu.Unlock()

	if hook != nil {
		if err := hook(index, notification); err != nil {
			return 0, err
		}
	}
	return 7, nil
}

func (notifier *recordingNotifier) bodies() []string {
	notifier.mu.Lock()
	defer notifier.mu.Unlock()
	bodies := make([]string, 0, len(notifier.pushed))
	for _, notification := range notifier.pushed {
		bodies = append(bodies, notification.Body)
	}
	return bodies
}

func newTestController(seconds int, notifier Notifier) *Controller {
	logger, _ := test.NewNullLogger()
	config := model.CountdownConfig{Seconds: seconds, TickInterval: 5 * time.Millisecond}
	return New(config, notifier, testWording{}, logger)
}

func TestCountdownCancelledMidway(t *testing.T) {
	start, canceller := handoff.NewStart()
	notifier := &recordingNotifier{hook: func(_ int, notification Notification) error {
		if notification.Body == "Logging you out in 3 seconds..." {
			canceller.Cancel()
		}
		return nil
	}}
	controller := newTestController(5, notifier)

	queue := handoff.NewQueue()
	require.NoError(t, queue.Send(start))
	queue.Close()

	require.NoError(t, controller.Run(context.Background(), queue))
	assert.Equal(t, []string{
		"Logging you out in 5 seconds...",
		"Logging you out in 4 seconds...",
		"Logging you out in 3 seconds...",
		"Logging out has been canceled.",
	}, notifier.bodies())

	pushed := notifier.pushed
	assert.Equal(t, uint32(0), pushed[0].ReplacesID)
	for _, notification := range pushed[1:] {
		assert.Equal(t, uint32(7), notification.ReplacesID)
	}
	assert.Equal(t, "data-success", pushed[3].Icon)
	assert.Equal(t, 5*time.Second, pushed[3].Expire)
	assert.Equal(t, StateWaiting, controller.State())
}

func TestCountdownExpires(t *testing.T) {
	notifier := &recordingNotifier{}
	controller := newTestController(3, notifier)
	events := controller.Subscribe(32)

	start, _ := handoff.NewStart()
	queue := handoff.NewQueue()
	require.NoError(t, queue.Send(start))

	err := controller.Run(context.Background(), queue)
	require.ErrorIs(t, err, ErrExpired)
	assert.Equal(t, []string{
		"Logging you out in 3 seconds...",
		"Logging you out in 2 seconds...",
		"Logging you out in 1 seconds...",
	}, notifier.bodies())
	assert.Equal(t, StateExpired, controller.State())

	var progress []time.Duration
	var last State
	for event := range events {
		if event.Type == EventProgress {
			progress = append(progress, event.Remaining)
		}
		if event.Type == EventStateChange {
			last = event.State
		}
	}
	assert.Equal(t, []time.Duration{3 * time.Second, 2 * time.Second, time.Second}, progress)
	assert.Equal(t, StateExpired, last)
}

func TestZeroLengthCountdownExpiresImmediately(t *testing.T) {
	notifier := &recordingNotifier{}
	controller := newTestController(0, notifier)

	start, _ := handoff.NewStart()
	queue := handoff.NewQueue()
	require.NoError(t, queue.Send(start))

	require.ErrorIs(t, controller.Run(context.Background(), queue), ErrExpired)
	assert.Empty(t, notifier.bodies())
}

func TestNotifyFailureAbortsOnlyCurrentCountdown(t *testing.T) {
	first, _ := handoff.NewStart()
	second, cancelSecond := handoff.NewStart()
	notifier := &recordingNotifier{hook: func(index int, _ Notification) error {
		switch index {
		case 0:
			return errors.New("notification daemon gone")
		case 2:
			cancelSecond.Cancel()
		}
		return nil
	}}
	controller := newTestController(5, notifier)
	events := controller.Subscribe(64)

	queue := handoff.NewQueue()
	require.NoError(t, queue.Send(first))
	require.NoError(t, queue.Send(second))
	queue.Close()

	require.NoError(t, controller.Run(context.Background(), queue))
	assert.Equal(t, []string{
		"Logging you out in 5 seconds...",
		"Logging you out in 5 seconds...",
		"Logging you out in 4 seconds...",
		"Logging out has been canceled.",
	}, notifier.bodies())

	var failures int
	for event := range events {
		if event.Type == EventNotifyError {
			failures++
			assert.Equal(t, first.ID, event.Countdown)
		}
	}
	assert.Equal(t, 1, failures)
}

func TestFreshCountdownStartsFromFullDuration(t *testing.T) {
	first, cancelFirst := handoff.NewStart()
	second, cancelSecond := handoff.NewStart()
	notifier := &recordingNotifier{hook: func(index int, _ Notification) error {
		switch index {
		case 1:
			cancelFirst.Cancel()
		case 4:
			cancelSecond.Cancel()
		}
		return nil
	}}
	controller := newTestController(4, notifier)

	queue := handoff.NewQueue()
	require.NoError(t, queue.Send(first))
	require.NoError(t, queue.Send(second))
	queue.Close()

	require.NoError(t, controller.Run(context.Background(), queue))
	assert.Equal(t, []string{
		"Logging you out in 4 seconds...",
		"Logging you out in 3 seconds...",
		"Logging out has been canceled.",
		"Logging you out in 4 seconds...",
		"Logging you out in 3 seconds...",
		"Logging out has been canceled.",
	}, notifier.bodies())
}

func TestStaleStartIsSkipped(t *testing.T) {
	notifier := &recordingNotifier{}
	controller := newTestController(5, notifier)

	start, canceller := handoff.NewStart()
	canceller.Cancel()
	queue := handoff.NewQueue()
	require.NoError(t, queue.Send(start))
	queue.Close()

	require.NoError(t, controller.Run(context.Background(), queue))
	assert.Empty(t, notifier.bodies())
}

func TestRunStopsWithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	notifier := &recordingNotifier{hook: func(index int, _ Notification) error {
		if index == 1 {
			cancel()
		}
		return nil
	}}
	controller := newTestController(10, notifier)

	start, _ := handoff.NewStart()
	queue := handoff.NewQueue()
	require.NoError(t, queue.Send(start))

	err := controller.Run(ctx, queue)
	require.ErrorIs(t, err, context.Canceled)
	assert.Len(t, notifier.bodies(), 2)
}
