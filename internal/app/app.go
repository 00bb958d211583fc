// Package app wires the idle watcher to the countdown controller and performs
// the session action when a countdown expires.
package app

import (
	"context"
	"time"

	"autologout/internal/core/countdown"
	"autologout/internal/core/handoff"
	"autologout/internal/core/model"
	"autologout/internal/core/watcher"
	"autologout/internal/session"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

const actionTimeout = 10 * time.Second

var errSessionEnded = errors.New("session action performed")

// Config contains the values resolved at startup.
type Config struct {
	Watcher   model.WatcherConfig
	Countdown model.CountdownConfig
	Action    session.Action
	SessionID string
}

// Dependencies are the external collaborators.
type Dependencies struct {
	Source   watcher.Source
	Notifier countdown.Notifier
	Backend  session.Backend
	Logger   logrus.FieldLogger
}

// App runs one watcher and one controller until the session action fires,
// the context ends, or either side fails.
type App struct {
	config     Config
	deps       Dependencies
	starts     *handoff.Queue
	watcher    *watcher.Watcher
	controller *countdown.Controller
}

// New creates an App.
func New(config Config, deps Dependencies) *App {
	starts := handoff.NewQueue()
	return &App{
		config:     config,
		deps:       deps,
		starts:     starts,
		watcher:    watcher.New(config.Watcher, deps.Source, starts, deps.Logger.WithField("component", "watcher")),
		controller: countdown.New(config.Countdown, deps.Notifier, config.Action, deps.Logger.WithField("component", "countdown")),
	}
}

// Controller exposes the countdown controller so observers can subscribe before Run.
func (app *App) Controller() *countdown.Controller {
	return app.controller
}

// Run blocks until shutdown. It returns nil after the session action was
// performed or after ctx was cancelled, and an error for any fatal failure.
func (app *App) Run(ctx context.Context) error {
	logger := app.deps.Logger
	logger.WithFields(logrus.Fields{
		"action":         app.config.Action.String(),
		"session":        app.config.SessionID,
		"idle_threshold": app.config.Watcher.IdleThreshold,
		"countdown":      time.Duration(app.config.Countdown.Seconds) * time.Second,
	}).Info("watching for idleness")

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		return app.watcher.Run(groupCtx)
	})
	group.Go(func() error {
		err := app.controller.Run(groupCtx, app.starts)
		if !errors.Is(err, countdown.ErrExpired) {
			return err
		}
		// No further countdown may start once the action is under way.
		app.starts.Close()
		if err := app.perform(ctx); err != nil {
			return err
		}
		return errSessionEnded
	})

	err := group.Wait()
	if closeErr := app.deps.Source.Close(); closeErr != nil {
		logger.WithError(closeErr).Debug("close idle source")
	}
	logger = logger.WithFields(logrus.Fields{
		"devices": app.watcher.Devices(),
		"idle":    app.watcher.IdleDevices(),
	})

	switch {
	case errors.Is(err, errSessionEnded):
		logger.Info("session action performed")
		return nil
	case ctx.Err() != nil && errors.Is(err, ctx.Err()):
		logger.Info("shutting down")
		return nil
	case err == nil:
		return errors.New("countdown controller stopped unexpectedly")
	default:
		return err
	}
}

func (app *App) perform(ctx context.Context) error {
	actionCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), actionTimeout)
	defer cancel()

	app.deps.Logger.WithFields(logrus.Fields{
		"action":  app.config.Action.String(),
		"session": app.config.SessionID,
	}).Warn("user absent, performing session action")
	return session.Perform(actionCtx, app.deps.Backend, app.config.Action, app.config.SessionID)
}
