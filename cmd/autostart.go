package main

import (
	"fmt"
	"os"
	"strings"

	"autologout/internal/platform"

	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

// NewAutostartCmd returns the autostart command group.
func NewAutostartCmd(globalFlags *GlobalFlags) *cobra.Command {
	autostartCmd := &cobra.Command{
		Use:   "autostart",
		Short: "Manage starting with the desktop session",
	}
	autostartCmd.AddCommand(&cobra.Command{
		Use:   "enable",
		Short: "Start automatically with the current flags at login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := globalFlags.Resolve(); err != nil {
				return err
			}
			execPath, err := os.Executable()
			if err != nil {
				return errors.Wrap(err, "resolve executable")
			}
			entry := platform.AutostartEntry{
				ID:      appID,
				Name:    appName,
				Comment: "Log out or lock the session after the user has been away",
				Exec:    execPath,
				Args:    globalFlags.Args(),
			}
			if err := platform.NewService().EnableAutostart(entry); err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "autostart enabled: %s\n", strings.Join(entry.Command(), " "))
			return nil
		},
	})
	autostartCmd.AddCommand(&cobra.Command{
		Use:   "disable",
		Short: "Stop starting automatically at login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := platform.NewService().DisableAutostart(appID); err != nil {
				return err
			}
			_, _ = fmt.Fprintln(cmd.OutOrStdout(), "autostart disabled")
			return nil
		},
	})
	autostartCmd.AddCommand(&cobra.Command{
		Use:   "status",
		Short: "Show whether and how the daemon starts at login",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			entry, enabled, err := platform.NewService().AutostartStatus(appID)
			if err != nil {
				return err
			}
			if !enabled {
				_, _ = fmt.Fprintln(cmd.OutOrStdout(), "autostart disabled")
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "autostart enabled: %s\n", strings.Join(entry.Command(), " "))
			return nil
		},
	})
	return autostartCmd
}
