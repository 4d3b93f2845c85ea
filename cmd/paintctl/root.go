package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/paintdesk-backend/pkg/settings"
)

type rootOptions struct {
	SettingsPath string
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:           "paintctl",
		Short:         "Workstation client for the paint request desk",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	cmd.PersistentFlags().StringVar(&opts.SettingsPath, "settings", settings.DefaultPath(), "workstation settings file")

	cmd.AddCommand(newSettingsCmd(opts))
	cmd.AddCommand(newRequestsCmd(opts))
	cmd.AddCommand(newNotificationsCmd(opts))
	return cmd
}

// client loads the saved workstation settings and points an API client at them.
func (o *rootOptions) client() (*apiClient, settings.Workstation, error) {
	station, err := settings.Load(o.SettingsPath)
	if err != nil {
		return nil, settings.Workstation{}, err
	}
	return newAPIClient(station.BaseURL(), newHTTPClient()), station, nil
}

func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}

func out(cmd *cobra.Command) io.Writer {
	return cmd.OutOrStdout()
}
