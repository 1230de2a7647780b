package dashboard

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestExportText(t *testing.T) {
	rec := &ConversationRecord{
		ConversationSummary: ConversationSummary{
			ID:              "c1",
			SessionID:       "s1",
			PrivacyMode:     PrivacyOnTheRecord,
			InteractionMode: InteractionVoice,
			CreatedAt:       time.Date(2025, 6, 2, 9, 30, 0, 0, time.UTC),
		},
		Messages:    json.RawMessage(`[{"role":"luna","content":"Hi there"},{"role":"user","content":"Hello"}]`),
		PlanDetails: json.RawMessage(`{"summary":"Build a prototype"}`),
	}

	out := rec.ExportText()
	assert.True(t, strings.HasPrefix(out, "Conversation Transcript\n"))
	assert.Contains(t, out, "Conversation ID: c1\n")
	assert.Contains(t, out, "Privacy: on the record\n")
	assert.Contains(t, out, "Started: Mon, 02 Jun 2025 09:30:00 UTC\n")
	assert.Contains(t, out, "Plan: Build a prototype\n")
	assert.Contains(t, out, "Luna:\nHi there\n\nVisitor:\nHello\n\n")
}

func TestExportTextWithoutMessages(t *testing.T) {
	rec := &ConversationRecord{ConversationSummary: ConversationSummary{ID: "c2"}}

	out := rec.ExportText()
	assert.NotContains(t, out, "Started:")
	assert.Contains(t, out, "Plan: No plan summary recorded.\n")
	assert.True(t, strings.HasSuffix(out, NoTranscriptMessage()+"\n"))
}

func TestDetailDecodesPayloads(t *testing.T) {
	rec := &ConversationRecord{
		ConversationSummary: ConversationSummary{ID: "c1"},
		Messages:            json.RawMessage(`"[{\"role\":\"user\",\"content\":\"hi\"}]"`),
		PlanDetails:         json.RawMessage(`{"estimatedScope":"4-6 weeks"}`),
	}

	d := rec.Detail()
	assert.Equal(t, "c1", d.ID)
	assert.Equal(t, []Message{{Role: RoleVisitor, Content: "hi"}}, d.Transcript)
	if assert.NotNil(t, d.Plan) && assert.NotNil(t, d.Plan.EstimatedScope) {
		assert.Equal(t, "4-6 weeks", *d.Plan.EstimatedScope)
	}

	empty := (&ConversationRecord{Messages: json.RawMessage(`{`)}).Detail()
	assert.NotNil(t, empty.Transcript)
	assert.Empty(t, empty.Transcript)
	assert.Nil(t, empty.Plan)
}
