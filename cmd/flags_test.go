package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"autologout/internal/core/model"

	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func parseFlags(t *testing.T, args ...string) *GlobalFlags {
	t.Helper()
	flags := pflag.NewFlagSet("test", pflag.ContinueOnError)
	globalFlags := SetGlobalFlags(flags)
	require.NoError(t, flags.Parse(args))
	return globalFlags
}

func TestResolveFlagsOverrideFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("timeout: 20m\ncountdown: 1m\nsource: poll\n"), 0o644))

	settings, err := parseFlags(t, "--config", configPath, "-c", "30s", "--immune-group", "staff").Resolve()
	require.NoError(t, err)
	assert.Equal(t, 20*time.Minute, settings.Timeout)
	assert.Equal(t, 30*time.Second, settings.Countdown)
	assert.Equal(t, model.SourcePoll, settings.Source)
	assert.Equal(t, []string{"staff"}, settings.ImmuneGroups)
	assert.Equal(t, "info", settings.LogLevel)
}

func TestResolveMissingFileUsesDefaults(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "absent.yaml")

	settings, err := parseFlags(t, "--config", configPath).Resolve()
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSettings(), settings)
}

func TestResolveRejectsInvalidSettings(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "absent.yaml")

	_, err := parseFlags(t, "--config", configPath, "--source", "x11").Resolve()
	require.ErrorContains(t, err, "unknown idle source")
}

func TestArgsReplayGivenFlags(t *testing.T) {
	globalFlags := parseFlags(t, "-t", "15m", "--immune-group", "wheel,staff", "--tray")

	assert.Equal(t, []string{
		"--immune-group=wheel",
		"--immune-group=staff",
		"--timeout=15m0s",
		"--tray=true",
	}, globalFlags.Args())
}
