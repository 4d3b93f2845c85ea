package main

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/paintdesk-backend/pkg/db/models"
)

func newNotificationsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "notifications",
		Aliases: []string{"notif"},
		Short:   "Read the current user's notifications",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List notifications, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := root.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			var rows []models.Notification
			if err := client.do(ctx, http.MethodGet, "/api/v1/notifications", nil, &rows); err != nil {
				return err
			}
			tw := tabwriter.NewWriter(out(cmd), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ID\tTYPE\tREAD\tMESSAGE")
			for _, row := range rows {
				fmt.Fprintf(tw, "%d\t%s\t%t\t%s\n", row.ID, row.Type, row.IsRead, row.Message)
			}
			return tw.Flush()
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "read <id>",
		Short: "Mark one notification as read",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid notification id %q", args[0])
			}
			client, _, err := root.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			var result struct {
				Updated bool `json:"updated"`
			}
			path := "/api/v1/notifications/" + strconv.FormatInt(id, 10) + "/read"
			if err := client.do(ctx, http.MethodPost, path, nil, &result); err != nil {
				return err
			}
			if !result.Updated {
				fmt.Fprintln(out(cmd), "already read")
				return nil
			}
			fmt.Fprintln(out(cmd), "marked as read")
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "read-all",
		Short: "Mark every notification as read",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := root.client()
			if err != nil {
				return err
			}
			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			var result struct {
				Count int64 `json:"count"`
			}
			if err := client.do(ctx, http.MethodPost, "/api/v1/notifications/read-all", nil, &result); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "marked %d as read\n", result.Count)
			return nil
		},
	})
	return cmd
}
