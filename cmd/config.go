package main

import (
	"fmt"

	"autologout/internal/storage"

	"github.com/spf13/cobra"
)

// NewConfigCmd returns the config command group.
func NewConfigCmd(globalFlags *GlobalFlags) *cobra.Command {
	configCmd := &cobra.Command{
		Use:   "config",
		Short: "Inspect or persist settings",
	}
	configCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Print the effective settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := globalFlags.Resolve()
			if err != nil {
				return err
			}
			serialized, err := storage.MarshalSettings(settings)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(serialized)
			return err
		},
	})
	configCmd.AddCommand(&cobra.Command{
		Use:   "save",
		Short: "Write the effective settings to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := globalFlags.Resolve()
			if err != nil {
				return err
			}
			path := globalFlags.ConfigPath
			if path == "" {
				path, err = storage.SaveSettings(appID, settings)
			} else {
				err = storage.SaveSettingsFile(path, settings)
			}
			if err != nil {
				return err
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "settings written to %s\n", path)
			return nil
		},
	})
	return configCmd
}
