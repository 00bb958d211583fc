//go:build linux

package platform

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

func (service *platformService) EnableAutostart(entry AutostartEntry) error {
	if err := entry.validate(); err != nil {
		return errors.Wrap(err, "enable autostart")
	}
	path, err := service.autostartPath(entry.ID)
	if err != nil {
		return errors.Wrap(err, "enable autostart")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errors.Wrap(err, "enable autostart: create autostart dir")
	}
	if err := os.WriteFile(path, []byte(renderDesktopEntry(entry)), 0o644); err != nil {
		return errors.Wrap(err, "enable autostart: write desktop entry")
	}
	return nil
}

func (service *platformService) DisableAutostart(id string) error {
	path, err := service.autostartPath(id)
	if err != nil {
		return errors.Wrap(err, "disable autostart")
	}
	if err := os.Remove(path); err != nil && !os.IsNotExist(err) {
		return errors.Wrap(err, "disable autostart: remove desktop entry")
	}
	return nil
}

func (service *platformService) AutostartStatus(id string) (AutostartEntry, bool, error) {
	path, err := service.autostartPath(id)
	if err != nil {
		return AutostartEntry{}, false, errors.Wrap(err, "autostart status")
	}
	content, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return AutostartEntry{}, false, nil
	}
	if err != nil {
		return AutostartEntry{}, false, errors.Wrap(err, "autostart status: read desktop entry")
	}
	entry, err := parseDesktopEntry(id, string(content))
	if err != nil {
		return AutostartEntry{}, true, errors.Wrapf(err, "autostart status: %s", path)
	}
	return entry, true, nil
}

func (service *platformService) autostartPath(id string) (string, error) {
	if id == "" {
		return "", errors.New("autostart entry id is empty")
	}
	configDir, err := service.GetConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(configDir, "autostart", desktopFileName(id)), nil
}

func fallbackConfigDir(homeDir string) string {
	return filepath.Join(homeDir, ".config")
}
