package handlers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/lunim/luna-dashboard/internal/audit"
	"github.com/lunim/luna-dashboard/internal/dashboard"
	"github.com/lunim/luna-dashboard/internal/http/middleware"
	"github.com/lunim/luna-dashboard/internal/pages"
	"github.com/lunim/luna-dashboard/pkg/logging"
)

// APIConversationsHandler exposes conversations as JSON behind API tokens.
type APIConversationsHandler struct {
	conversations pages.ConversationReader
	audit         *audit.Service
	logger        *logging.Logger
}

// NewAPIConversationsHandler creates the JSON API handler.
func NewAPIConversationsHandler(conversations pages.ConversationReader, auditSvc *audit.Service, logger *logging.Logger) *APIConversationsHandler {
	if conversations == nil {
		panic("handlers: conversation reader is required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &APIConversationsHandler{conversations: conversations, audit: auditSvc, logger: logger}
}

// ListConversationsResponse is the list endpoint payload.
type ListConversationsResponse struct {
	Conversations []dashboard.ConversationSummary `json:"conversations"`
	Total         int                             `json:"total"`
}

// ListConversations returns recent conversation summaries.
// GET /api/conversations
func (h *APIConversationsHandler) ListConversations(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.conversations.ListRecent(r.Context())
	if err != nil {
		h.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ListConversationsResponse{Conversations: summaries, Total: len(summaries)})
}

// GetConversation returns one decoded conversation.
// GET /api/conversations/{id}
func (h *APIConversationsHandler) GetConversation(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(chi.URLParam(r, "id"))
	if id == "" {
		jsonError(w, "missing conversation id", http.StatusBadRequest)
		return
	}
	rec, err := h.conversations.FetchByID(r.Context(), id)
	if err != nil {
		h.writeError(w, err)
		return
	}
	if rec == nil {
		jsonError(w, "conversation not found", http.StatusNotFound)
		return
	}

	var actor string
	if claims, ok := middleware.AdminClaimsFromContext(r.Context()); ok {
		actor = claims.Subject
	}
	h.audit.Record(r.Context(), audit.Event{
		EventType:      audit.EventConversationFetched,
		Actor:          actor,
		RemoteIP:       remoteIP(r),
		ConversationID: rec.ID,
	})
	writeJSON(w, http.StatusOK, rec.Detail())
}

func (h *APIConversationsHandler) writeError(w http.ResponseWriter, err error) {
	status, message := failureStatus(h.logger, err)
	jsonError(w, message, status)
}
