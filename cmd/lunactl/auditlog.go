package main

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/lunim/luna-dashboard/internal/audit"
)

func newAuditCmd(a *app) *cobra.Command {
	var (
		format         string
		limit          int
		eventType      string
		conversationID string
		since          time.Duration
	)
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "List recorded dashboard access events",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON, formatYAML); err != nil {
				return err
			}
			svc, cleanup, err := a.openAudit(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			filter := audit.Filter{
				EventType:      audit.EventType(eventType),
				ConversationID: conversationID,
				Limit:          limit,
			}
			if since > 0 {
				filter.Since = time.Now().Add(-since)
			}
			events, err := svc.QueryEvents(cmd.Context(), filter)
			if err != nil {
				return err
			}
			if events == nil {
				events = []audit.Event{}
			}

			out := cmd.OutOrStdout()
			switch format {
			case formatJSON:
				return writeJSON(out, events)
			case formatYAML:
				return writeYAML(out, events)
			}
			return printEvents(out, events)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json, yaml")
	cmd.Flags().IntVarP(&limit, "limit", "n", 50, "Show at most this many events")
	cmd.Flags().StringVar(&eventType, "type", "", "Only events of this type, e.g. dashboard.login_failed")
	cmd.Flags().StringVar(&conversationID, "conversation", "", "Only events for this conversation id")
	cmd.Flags().DurationVar(&since, "since", 0, "Only events newer than this, e.g. 24h")
	return cmd
}

func printEvents(out io.Writer, events []audit.Event) error {
	if len(events) == 0 {
		_, err := fmt.Fprintln(out, headerStyle.Render("No audit events."))
		return err
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "TIME\tEVENT\tACTOR\tIP\tCONVERSATION")
	for _, e := range events {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			e.CreatedAt.UTC().Format(time.RFC3339),
			e.EventType,
			dash(e.Actor),
			dash(e.RemoteIP),
			dash(e.ConversationID),
		)
	}
	return w.Flush()
}

func dash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}
