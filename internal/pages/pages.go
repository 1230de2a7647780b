// Package pages resolves the dashboard's server-rendered pages. Each resolver
// returns the data for a page or an error; a *Redirect error is a redirect
// outcome the HTTP layer performs, and ErrNotFound selects the not-found page.
package pages

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/lunim/luna-dashboard/internal/auth"
	"github.com/lunim/luna-dashboard/internal/dashboard"
)

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"

	// DefaultRefresh matches the store cache window.
	DefaultRefresh = 30 * time.Second
)

// ErrNotFound is returned when a conversation id does not resolve.
var ErrNotFound = errors.New("pages: conversation not found")

// Redirect is an explicit redirect outcome. Cookie, when set, is written
// before the redirect is issued.
type Redirect struct {
	Location string
	Cookie   *http.Cookie
}

func (r *Redirect) Error() string {
	return "pages: redirect to " + r.Location
}

// AsRedirect unwraps a redirect outcome from err.
func AsRedirect(err error) (*Redirect, bool) {
	var redirect *Redirect
	if errors.As(err, &redirect) {
		return redirect, true
	}
	return nil, false
}

// ConversationReader is the read side of the conversation data access layer.
type ConversationReader interface {
	ListRecent(ctx context.Context) ([]dashboard.ConversationSummary, error)
	FetchByID(ctx context.Context, id string) (*dashboard.ConversationRecord, error)
}

// Resolver builds page data for the login, list and detail pages.
type Resolver struct {
	gate          *auth.Gate
	conversations ConversationReader
	refresh       time.Duration
}

// NewResolver wires the session gate and the conversation reader.
func NewResolver(gate *auth.Gate, conversations ConversationReader, refresh time.Duration) *Resolver {
	if gate == nil {
		panic("pages: gate is required")
	}
	if conversations == nil {
		panic("pages: conversation reader is required")
	}
	if refresh <= 0 {
		refresh = DefaultRefresh
	}
	return &Resolver{gate: gate, conversations: conversations, refresh: refresh}
}

// LoginPage is the login form state.
type LoginPage struct {
	Email string
	Error string
}

// Login renders the empty form, or sends an authenticated visitor on to the
// dashboard.
func (p *Resolver) Login(r *http.Request) (LoginPage, error) {
	if p.gate.RequestAuthenticated(r) {
		return LoginPage{}, &Redirect{Location: DashboardPath}
	}
	return LoginPage{}, nil
}

// SubmitLogin checks the submitted credentials. A failed attempt re-renders the
// form with the generic message; success redirects with the session cookie.
func (p *Resolver) SubmitLogin(email, password string) (LoginPage, error) {
	email = strings.TrimSpace(email)
	token, err := p.gate.Authenticate(email, password)
	if err != nil {
		return LoginPage{Email: email, Error: auth.InvalidCredentialsMessage}, nil
	}
	return LoginPage{}, &Redirect{Location: DashboardPath, Cookie: p.gate.SessionCookie(token)}
}

// Logout clears the session and returns to the login page.
func (p *Resolver) Logout() error {
	return &Redirect{Location: LoginPath, Cookie: p.gate.ClearCookie()}
}

// SummaryView is one row of the conversation list.
type SummaryView struct {
	ID           string
	SessionID    string
	Privacy      string
	Confidential bool
	Interaction  string
	PlanSummary  string
	CreatedAt    string
}

// DashboardPage lists recent conversations.
type DashboardPage struct {
	Conversations  []SummaryView
	RefreshSeconds int
}

// Dashboard resolves the conversation list for an authenticated visitor.
func (p *Resolver) Dashboard(r *http.Request) (DashboardPage, error) {
	if err := p.requireSession(r); err != nil {
		return DashboardPage{}, err
	}
	summaries, err := p.conversations.ListRecent(r.Context())
	if err != nil {
		return DashboardPage{}, err
	}

	views := make([]SummaryView, 0, len(summaries))
	for _, s := range summaries {
		views = append(views, SummaryView{
			ID:           s.ID,
			SessionID:    s.SessionID,
			Privacy:      s.PrivacyMode.Label(),
			Confidential: s.PrivacyMode == dashboard.PrivacyConfidential,
			Interaction:  string(s.InteractionMode),
			PlanSummary:  s.DisplayPlanSummary(),
			CreatedAt:    dashboard.FormatDate(s.CreatedAt),
		})
	}
	return DashboardPage{Conversations: views, RefreshSeconds: p.refreshSeconds()}, nil
}

// MessageView is one transcript turn.
type MessageView struct {
	Speaker   string
	Assistant bool
	Content   string
}

// DetailPage is the full view of a single conversation.
type DetailPage struct {
	ID              string
	SessionID       string
	Privacy         string
	Confidential    bool
	Interaction     string
	CreatedAt       string
	PlanSummary     string
	Plan            dashboard.PlanDetails
	HasPlan         bool
	Messages        []MessageView
	EmptyTranscript string
	RefreshSeconds  int
}

// Detail resolves one conversation for an authenticated visitor.
func (p *Resolver) Detail(r *http.Request, id string) (DetailPage, error) {
	rec, err := p.Record(r, id)
	if err != nil {
		return DetailPage{}, err
	}

	page := DetailPage{
		ID:             rec.ID,
		SessionID:      rec.SessionID,
		Privacy:        rec.PrivacyMode.Label(),
		Confidential:   rec.PrivacyMode == dashboard.PrivacyConfidential,
		Interaction:    string(rec.InteractionMode),
		CreatedAt:      dashboard.FormatDate(rec.CreatedAt),
		PlanSummary:    rec.ResolvedPlanSummary(),
		RefreshSeconds: p.refreshSeconds(),
	}
	page.Plan, page.HasPlan = rec.Plan()
	for _, msg := range rec.Transcript() {
		page.Messages = append(page.Messages, MessageView{
			Speaker:   msg.Role.Label(),
			Assistant: msg.Role.IsAssistant(),
			Content:   msg.Content,
		})
	}
	if len(page.Messages) == 0 {
		page.EmptyTranscript = dashboard.NoTranscriptMessage()
	}
	return page, nil
}

// Record returns the full record behind the detail page for exports.
func (p *Resolver) Record(r *http.Request, id string) (*dashboard.ConversationRecord, error) {
	if err := p.requireSession(r); err != nil {
		return nil, err
	}
	rec, err := p.conversations.FetchByID(r.Context(), id)
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (p *Resolver) requireSession(r *http.Request) error {
	if !p.gate.RequestAuthenticated(r) {
		return &Redirect{Location: LoginPath}
	}
	return nil
}

func (p *Resolver) refreshSeconds() int {
	return int(p.refresh / time.Second)
}
