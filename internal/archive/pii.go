package archive

import (
	"crypto/sha256"
	"fmt"
	"regexp"

	"github.com/lunim/luna-dashboard/internal/dashboard"
)

var (
	emailRe = regexp.MustCompile(`[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}`)
	phoneRe = regexp.MustCompile(`\+?1?[-.\s]?\(?[0-9]{3}\)?[-.\s]?[0-9]{3}[-.\s]?[0-9]{4}`)
)

// HashIdentifier returns the hex-encoded SHA-256 of an identifier.
func HashIdentifier(id string) string {
	if id == "" {
		return ""
	}
	h := sha256.Sum256([]byte(id))
	return fmt.Sprintf("%x", h)
}

// ScrubPII replaces emails with [EMAIL] and phone numbers with [PHONE].
func ScrubPII(text string) string {
	text = emailRe.ReplaceAllString(text, "[EMAIL]")
	text = phoneRe.ReplaceAllString(text, "[PHONE]")
	return text
}

// ScrubMessages applies ScrubPII to every message in place.
func ScrubMessages(msgs []dashboard.Message) {
	for i := range msgs {
		msgs[i].Content = ScrubPII(msgs[i].Content)
	}
}

// ScrubPlan applies ScrubPII to the free-text fields of a plan in place.
// Tags are category labels and are left alone.
func ScrubPlan(plan *dashboard.PlanDetails) {
	if plan == nil {
		return
	}
	scrubPtr(plan.Summary)
	scrubPtr(plan.EstimatedScope)
	scrubPtr(plan.CalendlyPurpose)
	for i := range plan.KeyInsights {
		plan.KeyInsights[i] = ScrubPII(plan.KeyInsights[i])
	}
	for i := range plan.NextSteps {
		step := &plan.NextSteps[i]
		step.Title = ScrubPII(step.Title)
		step.Description = ScrubPII(step.Description)
		scrubPtr(step.Action)
	}
}

func scrubPtr(s *string) {
	if s != nil {
		*s = ScrubPII(*s)
	}
}
