package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDerivedDurations(t *testing.T) {
	tests := []struct {
		name      string
		timeout   time.Duration
		countdown time.Duration
		seconds   int
		threshold time.Duration
	}{
		{"defaults", 10 * time.Minute, 3 * time.Minute, 180, 7 * time.Minute},
		{"countdown longer than timeout", 30 * time.Second, time.Minute, 30, 0},
		{"fractional countdown is floored", 10 * time.Second, 2500 * time.Millisecond, 2, 8 * time.Second},
		{"no countdown", time.Minute, 0, 0, time.Minute},
		{"sub-millisecond timeout", 1500*time.Millisecond + 300*time.Microsecond, time.Second, 1, 500 * time.Millisecond},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			settings := DefaultSettings()
			settings.Timeout = tt.timeout
			settings.Countdown = tt.countdown

			assert.Equal(t, tt.seconds, settings.CountdownConfig().Seconds)
			assert.Equal(t, tt.threshold, settings.WatcherConfig().IdleThreshold)
		})
	}
}

func TestValidate(t *testing.T) {
	require.NoError(t, DefaultSettings().Validate())

	settings := DefaultSettings()
	settings.Timeout = -time.Second
	require.Error(t, settings.Validate())

	settings = DefaultSettings()
	settings.Source = "x11"
	require.ErrorContains(t, settings.Validate(), "unknown idle source")

	settings = DefaultSettings()
	settings.Source = SourcePoll
	settings.PollInterval = 0
	require.Error(t, settings.Validate())

	settings = DefaultSettings()
	settings.Timeout = 60 * 24 * time.Hour
	require.ErrorContains(t, settings.Validate(), "exceeds")
}
