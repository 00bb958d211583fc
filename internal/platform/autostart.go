package platform

import (
	"os"

	"github.com/pkg/errors"
)

// Service defines OS-specific helpers needed by the application.
type Service interface {
	GetConfigDir() (string, error)
	EnableAutostart(entry AutostartEntry) error
	DisableAutostart(id string) error
	// AutostartStatus returns the installed entry and whether one exists.
	AutostartStatus(id string) (AutostartEntry, bool, error)
}

type platformService struct{}

// NewService returns a platform-specific implementation.
func NewService() Service {
	return &platformService{}
}

// GetConfigDir returns the OS-standard configuration directory.
func (service *platformService) GetConfigDir() (string, error) {
	configDir, err := os.UserConfigDir()
	if err == nil && configDir != "" {
		return configDir, nil
	}

	homeDir, homeErr := os.UserHomeDir()
	if homeErr != nil {
		if err != nil {
			return "", errors.Wrap(err, "get config dir")
		}
		return "", errors.Wrap(homeErr, "get config dir")
	}

	return fallbackConfigDir(homeDir), nil
}
