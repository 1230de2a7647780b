package main

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/lunim/luna-dashboard/internal/audit"
	"github.com/lunim/luna-dashboard/internal/dashboard"
)

func newListCmd(a *app) *cobra.Command {
	var (
		format string
		limit  int
	)
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the most recent conversations",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON, formatYAML); err != nil {
				return err
			}
			reader, cleanup, err := a.openConversations(cmd.Context())
			if err != nil {
				return err
			}
			defer cleanup()

			summaries, err := reader.ListRecent(cmd.Context())
			if err != nil {
				return err
			}
			if limit > 0 && len(summaries) > limit {
				summaries = summaries[:limit]
			}

			out := cmd.OutOrStdout()
			switch format {
			case formatJSON:
				return writeJSON(out, summaries)
			case formatYAML:
				return writeYAML(out, summaries)
			}
			return printSummaries(out, summaries)
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json, yaml")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Show at most this many conversations")
	return cmd
}

func printSummaries(out io.Writer, summaries []dashboard.ConversationSummary) error {
	if len(summaries) == 0 {
		_, err := fmt.Fprintln(out, headerStyle.Render("No conversations yet."))
		return err
	}
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%d conversation(s)", len(summaries))))
	fmt.Fprintln(out)

	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "ID\tCREATED\tPRIVACY\tMODE\tPLAN")
	for _, s := range summaries {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\n",
			s.ID,
			dashboard.FormatDate(s.CreatedAt),
			s.PrivacyMode.Label(),
			s.InteractionMode,
			truncate(s.DisplayPlanSummary(), 60),
		)
	}
	return w.Flush()
}

func newShowCmd(a *app) *cobra.Command {
	var format string
	cmd := &cobra.Command{
		Use:   "show <conversation-id>",
		Short: "Show one conversation with its transcript and plan",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := checkFormat(format, formatText, formatJSON, formatYAML, formatTranscript); err != nil {
				return err
			}
			rec, err := a.fetchConversation(cmd, args[0])
			if err != nil {
				return err
			}
			a.auditAccess(cmd, audit.EventConversationViewed, rec.ID, map[string]string{"source": "lunactl", "format": format})

			out := cmd.OutOrStdout()
			switch format {
			case formatJSON:
				return writeJSON(out, rec.Detail())
			case formatYAML:
				return writeYAML(out, rec.Detail())
			case formatTranscript:
				_, err := io.WriteString(out, rec.ExportText())
				return err
			}
			return printDetail(out, rec.Detail())
		},
	}
	cmd.Flags().StringVarP(&format, "format", "f", formatText, "Output format: text, json, yaml, transcript")
	return cmd
}

func printDetail(out io.Writer, d dashboard.ConversationDetail) error {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Conversation "+d.ID) + "\n")
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Session:"), idStyle.Render(d.SessionID))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Privacy:"), d.PrivacyMode.Label())
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Mode:"), d.InteractionMode)
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Started:"), dateStyle.Render(dashboard.FormatDate(d.CreatedAt)))
	fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Plan:"), d.ResolvedPlanSummary)

	if d.Plan != nil {
		if len(d.Plan.Tags) > 0 {
			fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Tags:"), strings.Join(d.Plan.Tags, ", "))
		}
		if d.Plan.EstimatedScope != nil {
			fmt.Fprintf(&b, "%s %s\n", labelStyle.Render("Scope:"), *d.Plan.EstimatedScope)
		}
		for _, step := range d.Plan.NextSteps {
			fmt.Fprintf(&b, "  - %s: %s\n", step.Title, step.Description)
		}
	}

	b.WriteString("\n")
	if len(d.Transcript) == 0 {
		b.WriteString(dashboard.NoTranscriptMessage() + "\n")
	}
	for _, m := range d.Transcript {
		style := visitorStyle
		if m.Role.IsAssistant() {
			style = lunaStyle
		}
		fmt.Fprintf(&b, "%s\n%s\n\n", style.Render(m.Role.Label()), m.Content)
	}
	_, err := io.WriteString(out, b.String())
	return err
}

func newArchiveCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "archive <conversation-id>",
		Short: "Write a conversation snapshot to the archive bucket",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := a.openArchive(cmd.Context())
			if err != nil {
				return err
			}
			rec, err := a.fetchConversation(cmd, args[0])
			if err != nil {
				return err
			}
			key, err := store.ArchiveConversation(cmd.Context(), rec)
			if err != nil {
				return err
			}
			a.auditAccess(cmd, audit.EventTranscriptArchived, rec.ID, map[string]string{"source": "lunactl", "key": key})
			fmt.Fprintf(cmd.OutOrStdout(), "archived %s to %s\n", rec.ID, key)
			return nil
		},
	}
}

func (a *app) fetchConversation(cmd *cobra.Command, id string) (*dashboard.ConversationRecord, error) {
	reader, cleanup, err := a.openConversations(cmd.Context())
	if err != nil {
		return nil, err
	}
	defer cleanup()

	rec, err := reader.FetchByID(cmd.Context(), id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, fmt.Errorf("conversation %s not found", id)
	}
	return rec, nil
}

// auditAccess records CLI reads when auditing is on. Failures to open the
// audit store are logged and never block the command.
func (a *app) auditAccess(cmd *cobra.Command, eventType audit.EventType, conversationID string, details map[string]string) {
	if !a.cfg.AuditEnabled {
		return
	}
	svc, cleanup, err := a.openAudit(cmd.Context())
	if err != nil {
		a.logger.Warn("audit unavailable", "error", err)
		return
	}
	defer cleanup()
	svc.ConversationAccess(cmd.Context(), eventType, conversationID, "", details)
}
