package main

import (
	"autologout/internal/core/model"
	"autologout/internal/storage"

	"github.com/pkg/errors"
	"github.com/spf13/pflag"
)

// GlobalFlags are the settings that can be given on the command line.
type GlobalFlags struct {
	ConfigPath   string
	Settings     model.Settings
	immuneGroups []string
	source       string
	flagSet      *pflag.FlagSet
}

// SetGlobalFlags registers the settings flags on flags.
func SetGlobalFlags(flags *pflag.FlagSet) *GlobalFlags {
	defaults := model.DefaultSettings()
	globalFlags := &GlobalFlags{flagSet: flags}

	flags.StringVar(&globalFlags.ConfigPath, "config", "", "Path to the config file")
	flags.DurationVarP(&globalFlags.Settings.Timeout, "timeout", "t", defaults.Timeout, "Idle logout duration, including countdown")
	flags.DurationVarP(&globalFlags.Settings.Countdown, "countdown", "c", defaults.Countdown, "Countdown notification duration")
	flags.StringSliceVar(&globalFlags.immuneGroups, "immune-group", defaults.ImmuneGroups, "Groups whose members are locked instead of logged out")
	flags.StringVar(&globalFlags.source, "source", string(defaults.Source), "Idle source: wayland or poll")
	flags.DurationVar(&globalFlags.Settings.PollInterval, "poll-interval", defaults.PollInterval, "Sampling interval of the poll source")
	flags.DurationVar(&globalFlags.Settings.DisplayWait, "display-wait", defaults.DisplayWait, "How long to wait for the compositor socket to appear")
	flags.BoolVar(&globalFlags.Settings.Tray, "tray", defaults.Tray, "Show a status icon in the system tray")
	flags.StringVar(&globalFlags.Settings.LogLevel, "log-level", defaults.LogLevel, "Log level: debug, info, warn or error")
	return globalFlags
}

// Resolve returns the effective settings: defaults, then the config file,
// then any flag given explicitly.
func (globalFlags *GlobalFlags) Resolve() (model.Settings, error) {
	var (
		settings model.Settings
		err      error
	)
	if globalFlags.ConfigPath != "" {
		settings, err = storage.LoadSettingsFile(globalFlags.ConfigPath)
	} else {
		settings, err = storage.LoadSettings(appID)
	}
	if err != nil {
		return settings, err
	}

	flags := globalFlags.flagSet
	if flags.Changed("timeout") {
		settings.Timeout = globalFlags.Settings.Timeout
	}
	if flags.Changed("countdown") {
		settings.Countdown = globalFlags.Settings.Countdown
	}
	if flags.Changed("immune-group") {
		settings.ImmuneGroups = globalFlags.immuneGroups
	}
	if flags.Changed("source") {
		settings.Source = model.SourceKind(globalFlags.source)
	}
	if flags.Changed("poll-interval") {
		settings.PollInterval = globalFlags.Settings.PollInterval
	}
	if flags.Changed("display-wait") {
		settings.DisplayWait = globalFlags.Settings.DisplayWait
	}
	if flags.Changed("tray") {
		settings.Tray = globalFlags.Settings.Tray
	}
	if flags.Changed("log-level") {
		settings.LogLevel = globalFlags.Settings.LogLevel
	}

	if err := settings.Validate(); err != nil {
		return settings, errors.Wrap(err, "invalid settings")
	}
	return settings, nil
}

// Args renders the explicitly given flags so they can be replayed later.
func (globalFlags *GlobalFlags) Args() []string {
	var args []string
	globalFlags.flagSet.VisitAll(func(flag *pflag.Flag) {
		if !flag.Changed {
			return
		}
		if slice, ok := flag.Value.(pflag.SliceValue); ok {
			for _, value := range slice.GetSlice() {
				args = append(args, "--"+flag.Name+"="+value)
			}
			return
		}
		args = append(args, "--"+flag.Name+"="+flag.Value.String())
	})
	return args
}
