//go:build linux

package platform

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseIdleMillis(t *testing.T) {
	idle, err := parseIdleMillis("1234\n")
	require.NoError(t, err)
	assert.Equal(t, 1234*time.Millisecond, idle)

	idle, err = parseIdleMillis("-5")
	require.NoError(t, err)
	assert.Equal(t, time.Duration(0), idle)

	_, err = parseIdleMillis("not a number")
	require.Error(t, err)
}

func TestUnsupportedProvider(t *testing.T) {
	_, err := unsupportedIdleProvider{}.IdleDuration()
	require.ErrorIs(t, err, ErrIdleUnsupported)
}
