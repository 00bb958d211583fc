package storage

import (
	"os"
	"path/filepath"
	"time"

	"autologout/internal/core/model"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

const settingsFileName = "config.yaml"

type yamlSettings struct {
	Timeout      string   `yaml:"timeout,omitempty"`
	Countdown    string   `yaml:"countdown,omitempty"`
	ImmuneGroups []string `yaml:"immune_groups,omitempty"`
	Source       string   `yaml:"source,omitempty"`
	PollInterval string   `yaml:"poll_interval,omitempty"`
	DisplayWait  string   `yaml:"display_wait,omitempty"`
	Tray         *bool    `yaml:"tray,omitempty"`
	LogLevel     string   `yaml:"log_level,omitempty"`
}

// LoadSettings reads settings from the user's config file.
// If the config file does not exist, default settings are returned.
func LoadSettings(appName string) (model.Settings, error) {
	configPath, err := ConfigPath(appName)
	if err != nil {
		return model.DefaultSettings(), err
	}
	return LoadSettingsFile(configPath)
}

// LoadSettingsFile reads settings from path on top of the defaults.
func LoadSettingsFile(configPath string) (model.Settings, error) {
	settings := model.DefaultSettings()
	rawData, err := os.ReadFile(configPath)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return settings, nil
		}
		return settings, errors.Wrap(err, "read settings file")
	}

	var fileData yamlSettings
	if err := yaml.Unmarshal(rawData, &fileData); err != nil {
		return settings, errors.Wrap(err, "parse settings yaml")
	}

	if err := applyYamlSettings(&settings, fileData); err != nil {
		return model.DefaultSettings(), errors.Wrapf(err, "settings file %s", configPath)
	}
	return settings, nil
}

// SaveSettings writes settings to the user's config file and returns its path.
func SaveSettings(appName string, settings model.Settings) (string, error) {
	configPath, err := ConfigPath(appName)
	if err != nil {
		return "", err
	}
	return configPath, SaveSettingsFile(configPath, settings)
}

// SaveSettingsFile writes settings to path.
func SaveSettingsFile(configPath string, settings model.Settings) error {
	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return errors.Wrap(err, "create config directory")
	}

	serialized, err := MarshalSettings(settings)
	if err != nil {
		return err
	}

	if err := os.WriteFile(configPath, serialized, 0o644); err != nil {
		return errors.Wrap(err, "write settings file")
	}

	return nil
}

// MarshalSettings renders settings in the config file format.
func MarshalSettings(settings model.Settings) ([]byte, error) {
	tray := settings.Tray
	fileData := yamlSettings{
		Timeout:      settings.Timeout.String(),
		Countdown:    settings.Countdown.String(),
		ImmuneGroups: settings.ImmuneGroups,
		Source:       string(settings.Source),
		PollInterval: settings.PollInterval.String(),
		DisplayWait:  settings.DisplayWait.String(),
		Tray:         &tray,
		LogLevel:     settings.LogLevel,
	}

	serialized, err := yaml.Marshal(fileData)
	if err != nil {
		return nil, errors.Wrap(err, "marshal settings yaml")
	}
	return serialized, nil
}

// ConfigPath returns the location of the settings file for appName.
func ConfigPath(appName string) (string, error) {
	configDir, err := os.UserConfigDir()
	if err != nil {
		return "", errors.Wrap(err, "resolve user config dir")
	}
	return filepath.Join(configDir, appName, settingsFileName), nil
}

func applyYamlSettings(settings *model.Settings, fileData yamlSettings) error {
	durations := []struct {
		name  string
		value string
		dst   *time.Duration
	}{
		{"timeout", fileData.Timeout, &settings.Timeout},
		{"countdown", fileData.Countdown, &settings.Countdown},
		{"poll_interval", fileData.PollInterval, &settings.PollInterval},
		{"display_wait", fileData.DisplayWait, &settings.DisplayWait},
	}
	for _, duration := range durations {
		if duration.value == "" {
			continue
		}
		parsed, err := time.ParseDuration(duration.value)
		if err != nil {
			return errors.Wrapf(err, "parse %s", duration.name)
		}
		*duration.dst = parsed
	}

	if fileData.ImmuneGroups != nil {
		settings.ImmuneGroups = fileData.ImmuneGroups
	}
	if fileData.Source != "" {
		settings.Source = model.SourceKind(fileData.Source)
	}
	if fileData.Tray != nil {
		settings.Tray = *fileData.Tray
	}
	if fileData.LogLevel != "" {
		settings.LogLevel = fileData.LogLevel
	}
	return nil
}
