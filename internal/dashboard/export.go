package dashboard

import (
	"strings"
	"time"
)

// ExportText renders the record as a plain-text transcript.
func (r *ConversationRecord) ExportText() string {
	var b strings.Builder
	b.WriteString("Conversation Transcript\n")
	b.WriteString("========================\n\n")
	b.WriteString("Conversation ID: " + r.ID + "\n")
	b.WriteString("Session ID: " + r.SessionID + "\n")
	b.WriteString("Privacy: " + r.PrivacyMode.Label() + "\n")
	b.WriteString("Mode: " + string(r.InteractionMode) + "\n")
	if !r.CreatedAt.IsZero() {
		b.WriteString("Started: " + r.CreatedAt.UTC().Format(time.RFC1123) + "\n")
	}
	b.WriteString("Plan: " + r.ResolvedPlanSummary() + "\n\n")
	b.WriteString("--- Messages ---\n\n")

	messages := r.Transcript()
	if len(messages) == 0 {
		b.WriteString(NoTranscriptMessage() + "\n")
		return b.String()
	}
	for _, msg := range messages {
		b.WriteString(msg.Role.Label() + ":\n")
		b.WriteString(msg.Content + "\n\n")
	}
	return b.String()
}
