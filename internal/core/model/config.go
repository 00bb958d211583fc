package model

import (
	"math"
	"time"

	"github.com/pkg/errors"
)

// SourceKind selects the idle-notification transport.
type SourceKind string

const (
	SourceWayland SourceKind = "wayland"
	SourcePoll    SourceKind = "poll"
)

// Settings defines the user-facing configuration of the daemon.
type Settings struct {
	Timeout      time.Duration
	Countdown    time.Duration
	ImmuneGroups []string
	Source       SourceKind
	PollInterval time.Duration
	DisplayWait  time.Duration
	Tray         bool
	LogLevel     string
}

// WatcherConfig contains runtime settings for the idle watcher.
type WatcherConfig struct {
	// IdleThreshold is the inactivity each device must reach before it reports idle.
	IdleThreshold time.Duration
}

// CountdownConfig contains runtime settings for the countdown controller.
type CountdownConfig struct {
	Seconds      int
	TickInterval time.Duration
}

// DefaultSettings returns default settings for the daemon.
func DefaultSettings() Settings {
	return Settings{
		Timeout:      10 * time.Minute,
		Countdown:    3 * time.Minute,
		ImmuneGroups: []string{"wheel"},
		Source:       SourceWayland,
		PollInterval: time.Second,
		DisplayWait:  30 * time.Second,
		Tray:         false,
		LogLevel:     "info",
	}
}

// Validate rejects settings the daemon cannot run with.
func (settings Settings) Validate() error {
	if settings.Timeout < 0 {
		return errors.Errorf("timeout must not be negative, got %s", settings.Timeout)
	}
	if settings.Countdown < 0 {
		return errors.Errorf("countdown must not be negative, got %s", settings.Countdown)
	}
	switch settings.Source {
	case SourceWayland, SourcePoll:
	default:
		return errors.Errorf("unknown idle source %q", settings.Source)
	}
	if settings.Source == SourcePoll && settings.PollInterval <= 0 {
		return errors.Errorf("poll interval must be positive, got %s", settings.PollInterval)
	}
	if settings.DisplayWait < 0 {
		return errors.Errorf("display wait must not be negative, got %s", settings.DisplayWait)
	}
	threshold := settings.WatcherConfig().IdleThreshold
	if threshold.Milliseconds() > math.MaxUint32 {
		return errors.Errorf("idle threshold %s exceeds the notifier limit", threshold)
	}
	return nil
}

// CountdownSeconds is the countdown length, capped at the timeout and floored to whole seconds.
func (settings Settings) CountdownSeconds() int {
	countdown := min(settings.Countdown, settings.Timeout)
	if countdown < 0 {
		return 0
	}
	return int(countdown / time.Second)
}

// WatcherConfig converts settings to WatcherConfig.
func (settings Settings) WatcherConfig() WatcherConfig {
	threshold := settings.Timeout - time.Duration(settings.CountdownSeconds())*time.Second
	if threshold < 0 {
		threshold = 0
	}
	return WatcherConfig{IdleThreshold: threshold.Truncate(time.Millisecond)}
}

// CountdownConfig converts settings to CountdownConfig.
func (settings Settings) CountdownConfig() CountdownConfig {
	return CountdownConfig{
		Seconds:      settings.CountdownSeconds(),
		TickInterval: time.Second,
	}
}
