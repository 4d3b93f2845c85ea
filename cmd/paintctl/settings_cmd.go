package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/paintdesk-backend/pkg/settings"
)

func newSettingsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change this workstation's settings",
	}
	cmd.AddCommand(newSettingsShowCmd(root))
	cmd.AddCommand(newSettingsSetCmd(root))
	return cmd
}

func newSettingsShowCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the saved settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			station, err := settings.Load(root.SettingsPath)
			if err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "workstation:    %s\n", station.Name)
			fmt.Fprintf(out(cmd), "server_address: %s\n", station.ServerAddress)
			fmt.Fprintf(out(cmd), "server_port:    %d\n", station.ServerPort)
			fmt.Fprintf(out(cmd), "api:            %s\n", station.BaseURL())
			return nil
		},
	}
}

func newSettingsSetCmd(root *rootOptions) *cobra.Command {
	var (
		name    string
		address string
		port    int
	)

	cmd := &cobra.Command{
		Use:   "set [--workstation name] [--address host] [--port n]",
		Short: "Update and save settings",
		RunE: func(cmd *cobra.Command, _ []string) error {
			station, err := settings.Load(root.SettingsPath)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("workstation") {
				station.Name = name
			}
			if cmd.Flags().Changed("address") {
				station.ServerAddress = address
			}
			if cmd.Flags().Changed("port") {
				station.ServerPort = port
			}
			if err := settings.Save(root.SettingsPath, station); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "saved %s\n", root.SettingsPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "workstation", "", "workstation name recorded as the origin station")
	cmd.Flags().StringVar(&address, "address", "", "API server address")
	cmd.Flags().IntVar(&port, "port", 0, "API server port")
	return cmd
}
