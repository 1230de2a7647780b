package dashboard

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// Store is the remote conversation collection.
type Store interface {
	// ListSummaries returns every record's summary projection, newest first.
	ListSummaries(ctx context.Context) ([]ConversationSummary, error)
	// GetByID returns the full record or ErrNotFound.
	GetByID(ctx context.Context, id string) (*ConversationRecord, error)
}

// querier is the subset of pgxpool.Pool used by PostgresStore.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// PostgresStore reads conversations from the hosted Postgres database.
type PostgresStore struct {
	db        querier
	listSQL   string
	getSQL    string
	tracer    trace.Tracer
	tableName string
}

// NewPostgresStore initializes a store backed by pgxpool.
func NewPostgresStore(pool *pgxpool.Pool, table string) *PostgresStore {
	if pool == nil {
		panic("dashboard: pgx pool required")
	}
	return NewPostgresStoreWithDB(pool, table)
}

// NewPostgresStoreWithDB allows injecting a mock database for testing.
func NewPostgresStoreWithDB(db querier, table string) *PostgresStore {
	if table == "" {
		table = "luna_conversations"
	}
	quoted := pq.QuoteIdentifier(table)
	return &PostgresStore{
		db:        db,
		tableName: table,
		listSQL: `SELECT id::text, session_id, privacy_mode, interaction_mode, plan_summary, created_at
		FROM ` + quoted + `
		ORDER BY created_at DESC`,
		getSQL: `SELECT id::text, session_id, privacy_mode, interaction_mode, plan_summary, created_at,
			messages::text, plan_details::text
		FROM ` + quoted + `
		WHERE id = $1`,
		tracer: otel.Tracer("luna.internal.dashboard.store"),
	}
}

// ListSummaries returns the summary projection ordered by created_at descending.
func (s *PostgresStore) ListSummaries(ctx context.Context) ([]ConversationSummary, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.store.list_summaries",
		trace.WithAttributes(attribute.String("db.table", s.tableName)))
	defer span.End()

	rows, err := s.db.Query(ctx, s.listSQL)
	if err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("dashboard: list summaries: %w", err)
	}
	defer rows.Close()

	summaries := []ConversationSummary{}
	for rows.Next() {
		var (
			summary         ConversationSummary
			privacyMode     string
			interactionMode string
		)
		if err := rows.Scan(
			&summary.ID,
			&summary.SessionID,
			&privacyMode,
			&interactionMode,
			&summary.PlanSummary,
			&summary.CreatedAt,
		); err != nil {
			span.RecordError(err)
			return nil, fmt.Errorf("dashboard: scan summary: %w", err)
		}
		summary.PrivacyMode = PrivacyMode(privacyMode)
		summary.InteractionMode = InteractionMode(interactionMode)
		summaries = append(summaries, summary)
	}
	if err := rows.Err(); err != nil {
		span.RecordError(err)
		return nil, fmt.Errorf("dashboard: iterate summaries: %w", err)
	}
	span.SetAttributes(attribute.Int("dashboard.rows", len(summaries)))
	return summaries, nil
}

// GetByID fetches exactly one record by identifier.
func (s *PostgresStore) GetByID(ctx context.Context, id string) (*ConversationRecord, error) {
	ctx, span := s.tracer.Start(ctx, "dashboard.store.get_by_id",
		trace.WithAttributes(attribute.String("db.table", s.tableName)))
	defer span.End()

	var (
		rec             ConversationRecord
		privacyMode     string
		interactionMode string
		messages        *string
		planDetails     *string
	)
	err := s.db.QueryRow(ctx, s.getSQL, id).Scan(
		&rec.ID,
		&rec.SessionID,
		&privacyMode,
		&interactionMode,
		&rec.PlanSummary,
		&rec.CreatedAt,
		&messages,
		&planDetails,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) || isInvalidIdentifier(err) {
			return nil, ErrNotFound
		}
		span.RecordError(err)
		return nil, fmt.Errorf("dashboard: select conversation: %w", err)
	}
	rec.PrivacyMode = PrivacyMode(privacyMode)
	rec.InteractionMode = InteractionMode(interactionMode)
	if messages != nil {
		rec.Messages = []byte(*messages)
	}
	if planDetails != nil {
		rec.PlanDetails = []byte(*planDetails)
	}
	return &rec, nil
}

// isInvalidIdentifier reports a malformed uuid literal, which can never match a row.
func isInvalidIdentifier(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "22P02"
}
