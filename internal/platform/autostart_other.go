//go:build !linux

package platform

import (
	"path/filepath"

	"github.com/pkg/errors"
)

var errAutostartUnsupported = errors.New("autostart is only supported on linux")

func (service *platformService) EnableAutostart(entry AutostartEntry) error {
	return errAutostartUnsupported
}

func (service *platformService) DisableAutostart(id string) error {
	return errAutostartUnsupported
}

func (service *platformService) AutostartStatus(id string) (AutostartEntry, bool, error) {
	return AutostartEntry{}, false, errAutostartUnsupported
}

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config")
}
