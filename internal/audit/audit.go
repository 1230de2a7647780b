// Package audit records dashboard access events.
package audit

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/lunim/luna-dashboard/pkg/logging"
)

// EventType identifies what happened.
type EventType string

const (
	EventLoginSucceeded      EventType = "dashboard.login_succeeded"
	EventLoginFailed         EventType = "dashboard.login_failed"
	EventLogout              EventType = "dashboard.logout"
	EventConversationViewed  EventType = "dashboard.conversation_viewed"
	EventTranscriptExported  EventType = "dashboard.transcript_exported"
	EventTranscriptArchived  EventType = "dashboard.transcript_archived"
	EventConversationFetched EventType = "api.conversation_fetched"
)

// Event is an append-only access record.
type Event struct {
	ID             string          `json:"id" yaml:"id"`
	EventType      EventType       `json:"event_type" yaml:"event_type"`
	Actor          string          `json:"actor,omitempty" yaml:"actor,omitempty"`
	RemoteIP       string          `json:"remote_ip,omitempty" yaml:"remote_ip,omitempty"`
	ConversationID string          `json:"conversation_id,omitempty" yaml:"conversation_id,omitempty"`
	Details        json.RawMessage `json:"details,omitempty" yaml:"-"`
	CreatedAt      time.Time       `json:"created_at" yaml:"created_at"`
}

// Filter narrows QueryEvents.
type Filter struct {
	EventType      EventType
	ConversationID string
	Since          time.Time
	Limit          int
}

// Service writes events to dashboard_audit_events. A nil *Service discards
// everything, which is how auditing is switched off.
type Service struct {
	db     *sql.DB
	logger *logging.Logger
}

// NewService creates an audit service.
func NewService(db *sql.DB, logger *logging.Logger) *Service {
	if db == nil {
		panic("audit: sql db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{db: db, logger: logger}
}

// LogEvent records an event.
func (s *Service) LogEvent(ctx context.Context, event Event) error {
	if s == nil {
		return nil
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if len(event.Details) == 0 {
		event.Details = json.RawMessage(`{}`)
	}

	query := `
		INSERT INTO dashboard_audit_events (
			id, event_type, actor, remote_ip, conversation_id, details, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
	`
	_, err := s.db.ExecContext(ctx, query,
		event.ID,
		string(event.EventType),
		nullString(event.Actor),
		nullString(event.RemoteIP),
		nullString(event.ConversationID),
		[]byte(event.Details),
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("audit: log event: %w", err)
	}
	return nil
}

// Record logs an event and swallows failures after logging them. Request
// handlers use it so a broken audit table never blocks a page.
func (s *Service) Record(ctx context.Context, event Event) {
	if s == nil {
		return
	}
	if err := s.LogEvent(ctx, event); err != nil {
		s.logger.Warn("audit event dropped", "event_type", event.EventType, "error", err)
	}
}

// LoginAttempt records a login outcome for the submitted email.
func (s *Service) LoginAttempt(ctx context.Context, email, remoteIP string, success bool) {
	eventType := EventLoginFailed
	if success {
		eventType = EventLoginSucceeded
	}
	s.Record(ctx, Event{EventType: eventType, Actor: email, RemoteIP: remoteIP})
}

// ConversationAccess records a read of a single conversation.
func (s *Service) ConversationAccess(ctx context.Context, eventType EventType, conversationID, remoteIP string, details map[string]string) {
	event := Event{EventType: eventType, ConversationID: conversationID, RemoteIP: remoteIP}
	if len(details) > 0 {
		event.Details, _ = json.Marshal(details)
	}
	s.Record(ctx, event)
}

// QueryEvents lists events newest first.
func (s *Service) QueryEvents(ctx context.Context, filter Filter) ([]Event, error) {
	query := `
		SELECT id, event_type, actor, remote_ip, conversation_id, details, created_at
		FROM dashboard_audit_events
		WHERE 1=1
	`
	var args []any
	argIdx := 1

	if filter.EventType != "" {
		query += fmt.Sprintf(" AND event_type = $%d", argIdx)
		args = append(args, string(filter.EventType))
		argIdx++
	}
	if filter.ConversationID != "" {
		query += fmt.Sprintf(" AND conversation_id = $%d", argIdx)
		args = append(args, filter.ConversationID)
		argIdx++
	}
	if !filter.Since.IsZero() {
		query += fmt.Sprintf(" AND created_at >= $%d", argIdx)
		args = append(args, filter.Since)
	}
	query += " ORDER BY created_at DESC"
	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT %d", filter.Limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("audit: query events: %w", err)
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var e Event
		var eventType string
		var actor, remoteIP, convID sql.NullString
		var details []byte
		if err := rows.Scan(&e.ID, &eventType, &actor, &remoteIP, &convID, &details, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("audit: scan event: %w", err)
		}
		e.EventType = EventType(eventType)
		e.Actor = actor.String
		e.RemoteIP = remoteIP.String
		e.ConversationID = convID.String
		if len(details) > 0 {
			e.Details = json.RawMessage(details)
		}
		events = append(events, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("audit: iterate events: %w", err)
	}
	return events, nil
}

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
