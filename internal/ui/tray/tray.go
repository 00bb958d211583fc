package tray

import (
	"fmt"
	"sync"
	"time"

	"autologout/internal/core/countdown"
	"autologout/resources"

	"fyne.io/systray"
)

// Callbacks defines tray action handlers.
type Callbacks struct {
	OnQuit func()
}

// Manager handles system tray state.
type Manager struct {
	mu          sync.Mutex
	statusItem  *systray.MenuItem
	quitItem    *systray.MenuItem
	callbacks   Callbacks
	title       string
	statusLabel string
	counting    bool
	end         func()
}

// Start registers the tray item and returns its manager.
func Start(title string, callbacks Callbacks) *Manager {
	manager := &Manager{
		callbacks:   callbacks,
		title:       title,
		statusLabel: "watching",
	}
	start, end := systray.RunWithExternalLoop(manager.onReady, nil)
	manager.end = end
	start()
	return manager
}

// Follow mirrors controller events in the tray until events is closed.
func (manager *Manager) Follow(events <-chan countdown.Event) {
	for event := range events {
		status, counting, ok := Status(event)
		if !ok {
			continue
		}
		manager.SetStatus(status, counting)
	}
}

// SetStatus updates the status label and icon.
func (manager *Manager) SetStatus(status string, counting bool) {
	manager.mu.Lock()
	defer manager.mu.Unlock()
	manager.statusLabel = status
	manager.counting = counting
	manager.refreshLocked()
}

// Stop removes the tray item.
func (manager *Manager) Stop() {
	if manager.end != nil {
		manager.end()
	}
}

func (manager *Manager) onReady() {
	manager.mu.Lock()
	systray.SetTitle(manager.title)
	manager.statusItem = systray.AddMenuItem("", "")
	manager.statusItem.Disable()
	systray.AddSeparator()
	manager.quitItem = systray.AddMenuItem("Quit", "Stop watching for idleness")
	manager.refreshLocked()
	quit := manager.quitItem.ClickedCh
	manager.mu.Unlock()

	go func() {
		for range quit {
			if manager.callbacks.OnQuit != nil {
				manager.callbacks.OnQuit()
			}
		}
	}()
}

func (manager *Manager) refreshLocked() {
	if manager.statusItem == nil {
		return
	}
	label := fmt.Sprintf("Status: %s", manager.statusLabel)
	manager.statusItem.SetTitle(label)
	systray.SetTooltip(fmt.Sprintf("%s: %s", manager.title, manager.statusLabel))
	if manager.counting {
		systray.SetIcon(resources.MustIcon(resources.IconCounting))
	} else {
		systray.SetIcon(resources.MustIcon(resources.IconWatching))
	}
}

// Status converts a controller event to a tray label.
func Status(event countdown.Event) (string, bool, bool) {
	switch event.Type {
	case countdown.EventProgress:
		return fmt.Sprintf("idle, acting in %s", formatRemaining(event.Remaining)), true, true
	case countdown.EventNotifyError:
		return "warning failed, countdown aborted", false, true
	case countdown.EventStateChange:
		switch event.State {
		case countdown.StateWaiting:
			return "watching", false, true
		case countdown.StateCancelled:
			return "welcome back", false, true
		case countdown.StateExpired:
			return "countdown expired", true, true
		}
	}
	return "", false, false
}

func formatRemaining(remaining time.Duration) string {
	if remaining < 0 {
		remaining = 0
	}
	seconds := int(remaining.Seconds())
	minutes := seconds / 60
	seconds = seconds % 60
	return fmt.Sprintf("%02d:%02d", minutes, seconds)
}
