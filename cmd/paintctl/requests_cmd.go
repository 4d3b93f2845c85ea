package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/angelmondragon/paintdesk-backend/pkg/db/models"
)

const commandTimeout = 20 * time.Second

type submitBody struct {
	OriginStation   string  `json:"originStation"`
	PartDescription string  `json:"partDescription"`
	PartCode        string  `json:"partCode"`
	PartColor       *string `json:"partColor,omitempty"`
	Quantity        int     `json:"quantity"`
	Priority        string  `json:"priority"`
	Notes           *string `json:"notes,omitempty"`
}

func newRequestsCmd(root *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:     "requests",
		Aliases: []string{"req"},
		Short:   "Submit and track paint requests",
	}
	cmd.AddCommand(newRequestsSubmitCmd(root))
	cmd.AddCommand(newRequestsListCmd(root))
	cmd.AddCommand(newRequestsGetCmd(root))
	cmd.AddCommand(newRequestsStatusCmd(root))
	return cmd
}

func newRequestsSubmitCmd(root *rootOptions) *cobra.Command {
	var (
		body  submitBody
		color string
		notes string
	)

	cmd := &cobra.Command{
		Use:   "submit --description text --code part-code [--quantity n] [--priority p]",
		Short: "Submit a new paint request from this workstation",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, station, err := root.client()
			if err != nil {
				return err
			}
			body.OriginStation = station.Name
			if cmd.Flags().Changed("color") {
				body.PartColor = &color
			}
			if cmd.Flags().Changed("notes") {
				body.Notes = &notes
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			var created models.PaintRequest
			if err := client.do(ctx, http.MethodPost, "/api/v1/requests", body, &created); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "submitted %s (id %d, %s)\n", created.RequestCode, created.ID, created.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&body.PartDescription, "description", "", "part description")
	cmd.Flags().StringVar(&body.PartCode, "code", "", "part code")
	cmd.Flags().IntVar(&body.Quantity, "quantity", 1, "number of parts")
	cmd.Flags().StringVar(&body.Priority, "priority", "normal", "normal, medium, high or urgent")
	cmd.Flags().StringVar(&color, "color", "", "requested color")
	cmd.Flags().StringVar(&notes, "notes", "", "free-form notes")
	return cmd
}

func newRequestsListCmd(root *rootOptions) *cobra.Command {
	var (
		status string
		userID int64
	)

	cmd := &cobra.Command{
		Use:   "list [--status s] [--user id]",
		Short: "List requests, newest first",
		RunE: func(cmd *cobra.Command, _ []string) error {
			client, _, err := root.client()
			if err != nil {
				return err
			}

			query := url.Values{}
			if strings.TrimSpace(status) != "" {
				query.Set("status", status)
			}
			if userID > 0 {
				query.Set("userId", strconv.FormatInt(userID, 10))
			}
			path := "/api/v1/requests"
			if len(query) > 0 {
				path += "?" + query.Encode()
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			var rows []models.PaintRequest
			if err := client.do(ctx, http.MethodGet, path, nil, &rows); err != nil {
				return err
			}
			return printRequests(out(cmd), rows)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "only requests in this status")
	cmd.Flags().Int64Var(&userID, "user", 0, "only requests submitted by this user id")
	return cmd
}

func newRequestsGetCmd(root *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "get <id|code>",
		Short: "Show one request by numeric id or request code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			client, _, err := root.client()
			if err != nil {
				return err
			}

			ref := strings.TrimSpace(args[0])
			path := "/api/v1/requests/code/" + url.PathEscape(ref)
			if _, err := strconv.ParseInt(ref, 10, 64); err == nil {
				path = "/api/v1/requests/" + ref
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			var row models.PaintRequest
			if err := client.do(ctx, http.MethodGet, path, nil, &row); err != nil {
				return err
			}
			return printRequest(out(cmd), row)
		},
	}
}

func newRequestsStatusCmd(root *rootOptions) *cobra.Command {
	var reason string

	cmd := &cobra.Command{
		Use:   "status <id> <status> [--reason text]",
		Short: "Move a request to a new status",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseInt(strings.TrimSpace(args[0]), 10, 64)
			if err != nil || id <= 0 {
				return fmt.Errorf("invalid request id %q", args[0])
			}
			client, _, err := root.client()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithTimeout(cmd.Context(), commandTimeout)
			defer cancel()

			body := map[string]string{"status": args[1]}
			if reason != "" {
				body["rejectionReason"] = reason
			}
			var updated models.PaintRequest
			path := "/api/v1/requests/" + strconv.FormatInt(id, 10) + "/status"
			if err := client.do(ctx, http.MethodPatch, path, body, &updated); err != nil {
				return err
			}
			fmt.Fprintf(out(cmd), "%s is now %s\n", updated.RequestCode, updated.Status)
			return nil
		},
	}

	cmd.Flags().StringVar(&reason, "reason", "", "rejection reason")
	return cmd
}

func printRequests(w io.Writer, rows []models.PaintRequest) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tCODE\tSTATUS\tPRIORITY\tQTY\tPART\tSTATION\tCREATED")
	for _, row := range rows {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%d\t%s\t%s\t%s\n",
			row.ID, row.RequestCode, row.Status, row.Priority, row.Quantity,
			row.PartCode, row.OriginStation, row.CreatedAt.Local().Format("2006-01-02 15:04"))
	}
	return tw.Flush()
}

func printRequest(w io.Writer, row models.PaintRequest) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "code\t%s\n", row.RequestCode)
	fmt.Fprintf(tw, "id\t%d\n", row.ID)
	fmt.Fprintf(tw, "status\t%s\n", row.Status)
	fmt.Fprintf(tw, "priority\t%s\n", row.Priority)
	fmt.Fprintf(tw, "part\t%s (%s)\n", row.PartDescription, row.PartCode)
	fmt.Fprintf(tw, "quantity\t%d\n", row.Quantity)
	if row.PartColor != nil {
		fmt.Fprintf(tw, "color\t%s\n", *row.PartColor)
	}
	fmt.Fprintf(tw, "station\t%s\n", row.OriginStation)
	if row.Notes != nil {
		fmt.Fprintf(tw, "notes\t%s\n", *row.Notes)
	}
	if row.RejectionReason != nil {
		fmt.Fprintf(tw, "rejected\t%s\n", *row.RejectionReason)
	}
	fmt.Fprintf(tw, "created\t%s\n", row.CreatedAt.Local().Format(time.RFC3339))
	if row.CompletedAt != nil {
		fmt.Fprintf(tw, "completed\t%s\n", row.CompletedAt.Local().Format(time.RFC3339))
	}
	return tw.Flush()
}
