//go:build linux

package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigSaveWritesUserConfig(t *testing.T) {
	configDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", configDir)
	path := filepath.Join(configDir, "autologout", "config.yaml")

	assert.Equal(t, "settings written to "+path+"\n", execute(t, "config", "save", "-t", "20m", "--source", "poll"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "timeout: 20m0s\n")
	assert.Contains(t, string(data), "source: poll\n")

	// Saved values become the new baseline for later runs.
	shown := execute(t, "config", "show", "-c", "1m")
	assert.Contains(t, shown, "timeout: 20m0s\n")
	assert.Contains(t, shown, "countdown: 1m0s\n")
	assert.Contains(t, shown, "source: poll\n")
}
