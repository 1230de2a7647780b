package handlers

import (
	"errors"
	"net/http"
	"net/url"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lunim/luna-dashboard/internal/archive"
	"github.com/lunim/luna-dashboard/internal/audit"
	"github.com/lunim/luna-dashboard/internal/observability/metrics"
	"github.com/lunim/luna-dashboard/internal/pages"
	"github.com/lunim/luna-dashboard/pkg/logging"
)

// DashboardHandler serves the session-gated HTML pages.
type DashboardHandler struct {
	pages   *pages.Resolver
	audit   *audit.Service
	archive *archive.Store
	metrics *metrics.DashboardMetrics
	logger  *logging.Logger
}

// NewDashboardHandler creates the page handler. auditSvc and archiveStore may
// be nil when those features are switched off.
func NewDashboardHandler(resolver *pages.Resolver, auditSvc *audit.Service, archiveStore *archive.Store, m *metrics.DashboardMetrics, logger *logging.Logger) *DashboardHandler {
	if resolver == nil {
		panic("handlers: page resolver is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &DashboardHandler{
		pages:   resolver,
		audit:   auditSvc,
		archive: archiveStore,
		metrics: m,
		logger:  logger,
	}
}

// Root sends visitors to the dashboard, which gates on the session itself.
// GET /
func (h *DashboardHandler) Root(w http.ResponseWriter, r *http.Request) {
	http.Redirect(w, r, pages.DashboardPath, http.StatusSeeOther)
}

// LoginForm renders the login page.
// GET /login
func (h *DashboardHandler) LoginForm(w http.ResponseWriter, r *http.Request) {
	page, err := h.pages.Login(r)
	if err != nil {
		renderFailure(w, r, h.logger, err)
		return
	}
	renderPage(w, h.logger, http.StatusOK, "login", view{Title: "Sign in", Page: page})
}

// Login verifies the submitted credentials.
// POST /login
func (h *DashboardHandler) Login(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		renderPage(w, h.logger, http.StatusBadRequest, "login", view{
			Title: "Sign in",
			Page:  pages.LoginPage{Error: "Invalid form submission."},
		})
		return
	}

	email := strings.TrimSpace(r.PostFormValue("email"))
	ip := remoteIP(r)
	page, err := h.pages.SubmitLogin(email, r.PostFormValue("password"))
	if redirect, ok := pages.AsRedirect(err); ok {
		h.metrics.ObserveLogin(true)
		h.audit.LoginAttempt(r.Context(), email, ip, true)
		h.logger.Info("dashboard login succeeded", "remote_ip", ip)
		performRedirect(w, r, redirect)
		return
	}
	if err != nil {
		renderFailure(w, r, h.logger, err)
		return
	}

	h.metrics.ObserveLogin(false)
	h.audit.LoginAttempt(r.Context(), email, ip, false)
	h.logger.Warn("dashboard login failed", "remote_ip", ip)
	renderPage(w, h.logger, http.StatusOK, "login", view{Title: "Sign in", Page: page})
}

// Logout clears the session cookie.
// POST /logout
func (h *DashboardHandler) Logout(w http.ResponseWriter, r *http.Request) {
	h.audit.Record(r.Context(), audit.Event{EventType: audit.EventLogout, RemoteIP: remoteIP(r)})
	renderFailure(w, r, h.logger, h.pages.Logout())
}

// Dashboard lists recent conversations.
// GET /dashboard
func (h *DashboardHandler) Dashboard(w http.ResponseWriter, r *http.Request) {
	page, err := h.pages.Dashboard(r)
	if err != nil {
		renderFailure(w, r, h.logger, err)
		return
	}
	renderPage(w, h.logger, http.StatusOK, "dashboard", view{
		Title:   "Conversations",
		Refresh: page.RefreshSeconds,
		Page:    page,
	})
}

// Detail shows one conversation.
// GET /dashboard/{id}
func (h *DashboardHandler) Detail(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	page, err := h.pages.Detail(r, id)
	if err != nil {
		renderFailure(w, r, h.logger, err)
		return
	}
	h.audit.ConversationAccess(r.Context(), audit.EventConversationViewed, page.ID, remoteIP(r), nil)

	var notice string
	if r.URL.Query().Get("archived") != "" {
		notice = "Snapshot archived."
	}
	renderPage(w, h.logger, http.StatusOK, "detail", view{
		Title:   "Conversation",
		Refresh: page.RefreshSeconds,
		Notice:  notice,
		Page:    page,
	})
}

// Export downloads the transcript as plain text.
// GET /dashboard/{id}/export
func (h *DashboardHandler) Export(w http.ResponseWriter, r *http.Request) {
	rec, err := h.pages.Record(r, chi.URLParam(r, "id"))
	if err != nil {
		renderFailure(w, r, h.logger, err)
		return
	}
	h.audit.ConversationAccess(r.Context(), audit.EventTranscriptExported, rec.ID, remoteIP(r), nil)

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="luna-conversation-`+rec.ID+`.txt"`)
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write([]byte(rec.ExportText()))
}

// Archive writes a snapshot of the conversation to the archive bucket.
// POST /dashboard/{id}/archive
func (h *DashboardHandler) Archive(w http.ResponseWriter, r *http.Request) {
	rec, err := h.pages.Record(r, chi.URLParam(r, "id"))
	if err != nil {
		renderFailure(w, r, h.logger, err)
		return
	}

	key, err := h.archive.ArchiveConversation(r.Context(), rec)
	if err != nil {
		status, message := http.StatusBadGateway, "Unable to archive this conversation. Please try again."
		if errors.Is(err, archive.ErrDisabled) {
			status, message = http.StatusServiceUnavailable, "Archiving is not configured for this dashboard."
		} else {
			requestLogger(h.logger, r).Error("archive conversation failed", "conversation_id", rec.ID, "error", err)
		}
		renderPage(w, h.logger, status, "error", view{
			Title: "Archive unavailable",
			Page:  ErrorPage{Heading: "Archive unavailable", Message: message},
		})
		return
	}

	h.audit.ConversationAccess(r.Context(), audit.EventTranscriptArchived, rec.ID, remoteIP(r), map[string]string{"key": key})
	http.Redirect(w, r, pages.DashboardPath+"/"+url.PathEscape(rec.ID)+"?archived=1", http.StatusSeeOther)
}

// NotFound renders the not-found page for unknown routes.
func (h *DashboardHandler) NotFound(w http.ResponseWriter, r *http.Request) {
	renderPage(w, h.logger, http.StatusNotFound, "error", view{
		Title: "Not found",
		Page:  ErrorPage{Heading: "Page not found", Message: "There is nothing at this address."},
	})
}
