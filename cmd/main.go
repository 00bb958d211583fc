package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"autologout/internal/app"
	"autologout/internal/core/model"
	"autologout/internal/core/watcher"
	"autologout/internal/notify"
	"autologout/internal/platform"
	"autologout/internal/platform/wayland"
	"autologout/internal/session"
	"autologout/internal/ui/tray"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

const (
	appName = "Auto Logout"
	appID   = "autologout"
)

func main() {
	rootCmd := BuildRoot()
	if err := rootCmd.ExecuteContext(context.Background()); err != nil {
		logrus.WithError(err).Fatal("autologout stopped")
	}
}

// BuildRoot creates the root command and its subcommands.
func BuildRoot() *cobra.Command {
	var globalFlags *GlobalFlags
	rootCmd := &cobra.Command{
		Use:           appID,
		Short:         "Log out or lock the session after the user has been away",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := globalFlags.Resolve()
			if err != nil {
				return err
			}
			return run(cmd.Context(), settings)
		},
	}
	globalFlags = SetGlobalFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(NewAutostartCmd(globalFlags))
	rootCmd.AddCommand(NewConfigCmd(globalFlags))
	return rootCmd
}

func run(parent context.Context, settings model.Settings) error {
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger, err := newLogger(settings.LogLevel)
	if err != nil {
		return err
	}

	guard, err := platform.AcquireSingleInstance(appID)
	if err != nil {
		return errors.Wrap(err, "single instance")
	}
	defer func() {
		_ = guard.Release()
	}()
	logger.WithField("lock", guard.Path()).Debug("single instance lock held")

	action, err := session.Resolve(session.UserGroups{}, settings.ImmuneGroups)
	if err != nil {
		return err
	}

	login, err := session.NewLogin1()
	if err != nil {
		return err
	}
	defer login.Close()
	sessionID, err := login.SessionID(ctx)
	if err != nil {
		return err
	}

	notifier, err := notify.New(appName)
	if err != nil {
		return err
	}
	defer notifier.Close()

	source, err := newSource(ctx, settings, logger)
	if err != nil {
		return err
	}

	daemon := app.New(app.Config{
		Watcher:   settings.WatcherConfig(),
		Countdown: settings.CountdownConfig(),
		Action:    action,
		SessionID: sessionID,
	}, app.Dependencies{
		Source:   source,
		Notifier: notifier,
		Backend:  login,
		Logger:   logger,
	})

	if settings.Tray {
		var quit context.CancelFunc
		ctx, quit = context.WithCancel(ctx)
		defer quit()
		manager := tray.Start(appName, tray.Callbacks{OnQuit: quit})
		defer manager.Stop()
		go manager.Follow(daemon.Controller().Subscribe(16))
	}

	return daemon.Run(ctx)
}

func newSource(ctx context.Context, settings model.Settings, logger logrus.FieldLogger) (watcher.Source, error) {
	switch settings.Source {
	case model.SourcePoll:
		return platform.NewPollSource(platform.NewIdleProvider(), settings.PollInterval, logger.WithField("component", "poll")), nil
	default:
		return wayland.Dial(ctx, settings.DisplayWait, logger.WithField("component", "wayland"))
	}
}

func newLogger(level string) (*logrus.Logger, error) {
	logger := logrus.New()
	logger.SetOutput(os.Stderr)
	logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	parsed, err := logrus.ParseLevel(level)
	if err != nil {
		return nil, errors.Wrap(err, "log level")
	}
	logger.SetLevel(parsed)
	return logger, nil
}
