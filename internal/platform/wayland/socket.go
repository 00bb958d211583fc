package wayland

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// ErrNoDisplay means the compositor socket did not appear in time.
var ErrNoDisplay = errors.New("wayland display not available")

// SocketPath resolves the compositor socket from WAYLAND_DISPLAY and XDG_RUNTIME_DIR.
func SocketPath() (string, error) {
	display := os.Getenv("WAYLAND_DISPLAY")
	if display == "" {
		display = "wayland-0"
	}
	if filepath.IsAbs(display) {
		return display, nil
	}
	runtimeDir := os.Getenv("XDG_RUNTIME_DIR")
	if runtimeDir == "" {
		return "", errors.New("XDG_RUNTIME_DIR is not set")
	}
	return filepath.Join(runtimeDir, display), nil
}

// WaitForSocket returns once path exists, waiting at most timeout for it to be created.
func WaitForSocket(ctx context.Context, path string, timeout time.Duration) error {
	if exists(path) {
		return nil
	}
	if timeout <= 0 {
		return errors.Wrap(ErrNoDisplay, path)
	}

	fileWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return errors.Wrap(err, "create socket watcher")
	}
	defer fileWatcher.Close()
	if err := fileWatcher.Add(filepath.Dir(path)); err != nil {
		return errors.Wrapf(err, "watch %s", filepath.Dir(path))
	}
	// The socket may have appeared between the first check and Add.
	if exists(path) {
		return nil
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return errors.Wrapf(ErrNoDisplay, "%s after %s", path, timeout)
		case event, ok := <-fileWatcher.Events:
			if !ok {
				return errors.Wrap(ErrNoDisplay, "socket watcher closed")
			}
			if filepath.Clean(event.Name) == filepath.Clean(path) && event.Has(fsnotify.Create) {
				return nil
			}
		case err, ok := <-fileWatcher.Errors:
			if !ok {
				return errors.Wrap(ErrNoDisplay, "socket watcher closed")
			}
			return errors.Wrap(err, "watch socket")
		}
	}
}

func exists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
