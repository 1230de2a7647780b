package archive

import (
	"time"

	"github.com/lunim/luna-dashboard/internal/dashboard"
)

// SnapshotVersion is written into every archived snapshot.
const SnapshotVersion = "1.0"

// Snapshot is the JSON document written to S3 for one conversation.
type Snapshot struct {
	Version         string                    `json:"version"`
	ConversationID  string                    `json:"conversation_id"`
	SessionID       string                    `json:"session_id"`
	PrivacyMode     dashboard.PrivacyMode     `json:"privacy_mode"`
	InteractionMode dashboard.InteractionMode `json:"interaction_mode"`
	CreatedAt       time.Time                 `json:"created_at"`
	ArchivedAt      time.Time                 `json:"archived_at"`
	PlanSummary     string                    `json:"plan_summary"`
	Plan            *dashboard.PlanDetails    `json:"plan,omitempty"`
	Redacted        bool                      `json:"redacted"`
	MessageCount    int                       `json:"message_count"`
	Messages        []dashboard.Message       `json:"messages"`
}

// ManifestEntry is one JSONL line in the monthly manifest file.
type ManifestEntry struct {
	ConversationID string `json:"conversation_id"`
	S3Key          string `json:"s3_key"`
	PrivacyMode    string `json:"privacy_mode"`
	Redacted       bool   `json:"redacted"`
	ArchivedAt     string `json:"archived_at"`
	MessageCount   int    `json:"message_count"`
}

// NewSnapshot projects rec into an archive document. Confidential sessions
// have their session id hashed and contact details scrubbed from every turn
// and from the plan text.
func NewSnapshot(rec *dashboard.ConversationRecord, archivedAt time.Time) Snapshot {
	messages := rec.Transcript()
	if messages == nil {
		messages = []dashboard.Message{}
	}
	snap := Snapshot{
		Version:         SnapshotVersion,
		ConversationID:  rec.ID,
		SessionID:       rec.SessionID,
		PrivacyMode:     rec.PrivacyMode,
		InteractionMode: rec.InteractionMode,
		CreatedAt:       rec.CreatedAt,
		ArchivedAt:      archivedAt.UTC(),
		PlanSummary:     rec.ResolvedPlanSummary(),
		MessageCount:    len(messages),
		Messages:        messages,
	}
	if plan, ok := rec.Plan(); ok {
		snap.Plan = &plan
	}
	if rec.PrivacyMode == dashboard.PrivacyConfidential {
		snap.SessionID = HashIdentifier(rec.SessionID)
		snap.PlanSummary = ScrubPII(snap.PlanSummary)
		ScrubMessages(snap.Messages)
		ScrubPlan(snap.Plan)
		snap.Redacted = true
	}
	return snap
}
