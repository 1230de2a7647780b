// Package dashboard is the read-only data access layer behind the conversation
// review pages. Records are written by the widget's ingestion process; nothing
// here mutates them.
package dashboard

import (
	"encoding/json"
	"strings"
	"time"
)

// PrivacyMode is the visitor's chosen recording mode.
type PrivacyMode string

const (
	PrivacyOnTheRecord  PrivacyMode = "on-the-record"
	PrivacyConfidential PrivacyMode = "confidential"
)

// Label is the human readable form, e.g. "on the record".
func (p PrivacyMode) Label() string {
	return strings.ReplaceAll(string(p), "-", " ")
}

// InteractionMode is how the visitor talked to the widget.
type InteractionMode string

const (
	InteractionVoice InteractionMode = "voice"
	InteractionText  InteractionMode = "text"
)

// Role identifies the speaker of a transcript turn.
type Role string

const (
	RoleAssistant Role = "luna"
	RoleVisitor   Role = "user"
)

// Label returns the display name for the speaker.
func (r Role) Label() string {
	if r == RoleAssistant {
		return "Luna"
	}
	return "Visitor"
}

// IsAssistant reports whether the turn was spoken by Luna.
func (r Role) IsAssistant() bool {
	return r == RoleAssistant
}

// ConversationSummary is the list projection of a conversation.
type ConversationSummary struct {
	ID              string          `json:"id" yaml:"id"`
	SessionID       string          `json:"session_id" yaml:"session_id"`
	PrivacyMode     PrivacyMode     `json:"privacy_mode" yaml:"privacy_mode"`
	InteractionMode InteractionMode `json:"interaction_mode" yaml:"interaction_mode"`
	PlanSummary     *string         `json:"plan_summary" yaml:"plan_summary"`
	CreatedAt       time.Time       `json:"created_at" yaml:"created_at"`
}

// ConversationRecord is one captured chat session. Messages and PlanDetails
// hold the payloads exactly as stored; decode them with Transcript and Plan.
type ConversationRecord struct {
	ConversationSummary `yaml:",inline"`
	Messages            json.RawMessage `json:"messages" yaml:"-"`
	PlanDetails         json.RawMessage `json:"plan_details" yaml:"-"`
}

// Message is one transcript turn. Order in the transcript is display order.
type Message struct {
	Role    Role   `json:"role" yaml:"role"`
	Content string `json:"content" yaml:"content"`
}

// NextStep is a recommended action in a plan.
type NextStep struct {
	Title       string  `json:"title" yaml:"title"`
	Description string  `json:"description" yaml:"description"`
	Action      *string `json:"action,omitempty" yaml:"action,omitempty"`
}

// PlanDetails is the structured plan derived from a conversation. Any field
// may be absent.
type PlanDetails struct {
	Summary         *string    `json:"summary,omitempty" yaml:"summary,omitempty"`
	Tags            []string   `json:"tags,omitempty" yaml:"tags,omitempty"`
	NextSteps       []NextStep `json:"nextSteps,omitempty" yaml:"next_steps,omitempty"`
	KeyInsights     []string   `json:"keyInsights,omitempty" yaml:"key_insights,omitempty"`
	EstimatedScope  *string    `json:"estimatedScope,omitempty" yaml:"estimated_scope,omitempty"`
	CalendlyPurpose *string    `json:"calendlyPurpose,omitempty" yaml:"calendly_purpose,omitempty"`
}

// Transcript decodes the stored messages, returning nil when absent or malformed.
func (r *ConversationRecord) Transcript() []Message {
	if r == nil {
		return nil
	}
	msgs, _ := ParseEmbeddedJSON[[]Message](r.Messages)
	return msgs
}

// Plan decodes the stored plan details.
func (r *ConversationRecord) Plan() (PlanDetails, bool) {
	if r == nil {
		return PlanDetails{}, false
	}
	return ParseEmbeddedJSON[PlanDetails](r.PlanDetails)
}

const (
	noPlanSummary       = "No plan summary recorded."
	planSummaryMissing  = "Plan summary not captured for this session."
	noTranscriptMessage = "No transcript available for this session."
)

// ResolvedPlanSummary prefers the record's plan summary, then the plan's own
// summary, then a placeholder.
func (r *ConversationRecord) ResolvedPlanSummary() string {
	if r != nil && r.PlanSummary != nil {
		return *r.PlanSummary
	}
	if plan, ok := r.Plan(); ok && plan.Summary != nil {
		return *plan.Summary
	}
	return noPlanSummary
}

// DisplayPlanSummary is the list-view summary text.
func (s ConversationSummary) DisplayPlanSummary() string {
	if s.PlanSummary != nil {
		return *s.PlanSummary
	}
	return planSummaryMissing
}

// NoTranscriptMessage is shown when a record has no decodable turns.
func NoTranscriptMessage() string {
	return noTranscriptMessage
}

// ConversationDetail is a record with its payloads decoded, for API and CLI
// output. Malformed payloads decode to an empty transcript and no plan.
type ConversationDetail struct {
	ConversationSummary `yaml:",inline"`
	ResolvedPlanSummary string       `json:"resolved_plan_summary" yaml:"resolved_plan_summary"`
	Transcript          []Message    `json:"transcript" yaml:"transcript"`
	Plan                *PlanDetails `json:"plan,omitempty" yaml:"plan,omitempty"`
}

// Detail decodes r for output.
func (r *ConversationRecord) Detail() ConversationDetail {
	d := ConversationDetail{
		ConversationSummary: r.ConversationSummary,
		ResolvedPlanSummary: r.ResolvedPlanSummary(),
		Transcript:          r.Transcript(),
	}
	if d.Transcript == nil {
		d.Transcript = []Message{}
	}
	if plan, ok := r.Plan(); ok {
		d.Plan = &plan
	}
	return d
}
