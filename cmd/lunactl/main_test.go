package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lunim/luna-dashboard/internal/archive"
	"github.com/lunim/luna-dashboard/internal/audit"
	"github.com/lunim/luna-dashboard/internal/auth"
	appconfig "github.com/lunim/luna-dashboard/internal/config"
	"github.com/lunim/luna-dashboard/internal/dashboard"
	"github.com/lunim/luna-dashboard/internal/http/middleware"
	"github.com/lunim/luna-dashboard/pkg/logging"
)

type stubReader struct {
	summaries []dashboard.ConversationSummary
	records   map[string]*dashboard.ConversationRecord
	err       error
}

func (s *stubReader) ListRecent(context.Context) ([]dashboard.ConversationSummary, error) {
	return s.summaries, s.err
}

func (s *stubReader) FetchByID(_ context.Context, id string) (*dashboard.ConversationRecord, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.records[id], nil
}

type recordingS3 struct {
	keys []string
}

func (f *recordingS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	_, _ = io.ReadAll(in.Body)
	f.keys = append(f.keys, *in.Key)
	return &s3.PutObjectOutput{}, nil
}

func (f *recordingS3) GetObject(context.Context, *s3.GetObjectInput, ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	return nil, errors.New("NoSuchKey: not found")
}

func sampleReader() *stubReader {
	summary := "Chat assistant for a bakery"
	rec := &dashboard.ConversationRecord{
		ConversationSummary: dashboard.ConversationSummary{
			ID:              "c1",
			SessionID:       "session-1",
			PrivacyMode:     dashboard.PrivacyOnTheRecord,
			InteractionMode: dashboard.InteractionText,
			PlanSummary:     &summary,
			CreatedAt:       time.Date(2025, 6, 2, 15, 4, 0, 0, time.UTC),
		},
		Messages:    json.RawMessage(`[{"role":"luna","content":"Hi, I'm Luna."},{"role":"user","content":"We bake bread"}]`),
		PlanDetails: json.RawMessage(`{"tags":["text"],"nextSteps":[{"title":"Discovery call","description":"Book a call"}]}`),
	}
	return &stubReader{
		summaries: []dashboard.ConversationSummary{rec.ConversationSummary},
		records:   map[string]*dashboard.ConversationRecord{"c1": rec},
	}
}

func newTestApp(reader *stubReader) *app {
	a := &app{
		cfg:    &appconfig.Config{AdminJWTSecret: "test-secret"},
		logger: logging.NewWithWriter("error", io.Discard),
	}
	a.openConversations = func(context.Context) (conversationReader, func(), error) {
		return reader, func() {}, nil
	}
	a.openAudit = func(context.Context) (*audit.Service, func(), error) {
		return nil, nil, errors.New("audit not configured in test")
	}
	a.openArchive = func(context.Context) (*archive.Store, error) {
		return nil, errors.New("archive not configured in test")
	}
	return a
}

func execute(t *testing.T, a *app, stdin string, args ...string) (string, error) {
	t.Helper()
	root := newRootCmd(a)
	var out bytes.Buffer
	root.SetOut(&out)
	root.SetErr(&out)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return out.String(), err
}

func TestHashPassword(t *testing.T) {
	t.Run("from argument", func(t *testing.T) {
		out, err := execute(t, newTestApp(sampleReader()), "", "hash-password", "s3cret")
		require.NoError(t, err)
		assert.Equal(t, auth.HashPassword("s3cret")+"\n", out)
	})

	t.Run("from stdin", func(t *testing.T) {
		out, err := execute(t, newTestApp(sampleReader()), "s3cret\n", "hash-password")
		require.NoError(t, err)
		assert.Equal(t, auth.HashPassword("s3cret")+"\n", out)
	})

	t.Run("empty input", func(t *testing.T) {
		_, err := execute(t, newTestApp(sampleReader()), "", "hash-password")
		require.Error(t, err)
		assert.Contains(t, err.Error(), "password is required")
	})
}

func TestTokenCommand(t *testing.T) {
	out, err := execute(t, newTestApp(sampleReader()), "", "token", "--subject", "ops", "--ttl", "10m")
	require.NoError(t, err)

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(strings.TrimSpace(out), claims, func(*jwt.Token) (any, error) {
		return []byte("test-secret"), nil
	})
	require.NoError(t, err)
	assert.Equal(t, "ops", claims.Subject)
	assert.Equal(t, middleware.AdminIssuer, claims.Issuer)
}

func TestTokenCommandRequiresSecret(t *testing.T) {
	a := newTestApp(sampleReader())
	a.cfg.AdminJWTSecret = ""
	_, err := execute(t, a, "", "token")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "ADMIN_JWT_SECRET")
}

func TestListFormats(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		out, err := execute(t, newTestApp(sampleReader()), "", "list")
		require.NoError(t, err)
		assert.Contains(t, out, "1 conversation(s)")
		assert.Contains(t, out, "c1")
		assert.Contains(t, out, "on the record")
		assert.Contains(t, out, "Chat assistant for a bakery")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, newTestApp(sampleReader()), "", "list", "--format", "json")
		require.NoError(t, err)
		var got []dashboard.ConversationSummary
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "session-1", got[0].SessionID)
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := execute(t, newTestApp(sampleReader()), "", "list", "-f", "yaml")
		require.NoError(t, err)
		var got []map[string]any
		require.NoError(t, yaml.Unmarshal([]byte(out), &got))
		require.Len(t, got, 1)
		assert.Equal(t, "c1", got[0]["id"])
	})

	t.Run("unknown format", func(t *testing.T) {
		_, err := execute(t, newTestApp(sampleReader()), "", "list", "--format", "csv")
		require.Error(t, err)
		assert.Contains(t, err.Error(), `unsupported format "csv"`)
	})
}

func TestListEmptyAndLimit(t *testing.T) {
	out, err := execute(t, newTestApp(&stubReader{}), "", "list")
	require.NoError(t, err)
	assert.Contains(t, out, "No conversations yet.")

	reader := sampleReader()
	extra := reader.summaries[0]
	extra.ID = "c2"
	reader.summaries = append(reader.summaries, extra)
	out, err = execute(t, newTestApp(reader), "", "list", "--limit", "1", "--format", "json")
	require.NoError(t, err)
	var got []dashboard.ConversationSummary
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Len(t, got, 1)
}

func TestListPropagatesStoreErrors(t *testing.T) {
	_, err := execute(t, newTestApp(&stubReader{err: &dashboard.DataError{Kind: dashboard.ErrStoreUnreachable, Context: "conversations"}}), "", "list")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Cannot reach the conversation store")
}

func TestShowFormats(t *testing.T) {
	t.Run("text", func(t *testing.T) {
		out, err := execute(t, newTestApp(sampleReader()), "", "show", "c1")
		require.NoError(t, err)
		assert.Contains(t, out, "Conversation c1")
		assert.Contains(t, out, "Tags: text")
		assert.Contains(t, out, "Discovery call: Book a call")
		assert.Contains(t, out, "Luna\nHi, I'm Luna.")
		assert.Contains(t, out, "Visitor\nWe bake bread")
	})

	t.Run("transcript", func(t *testing.T) {
		out, err := execute(t, newTestApp(sampleReader()), "", "show", "c1", "--format", "transcript")
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(out, "Conversation Transcript"))
		assert.Contains(t, out, "--- Messages ---")
	})

	t.Run("json", func(t *testing.T) {
		out, err := execute(t, newTestApp(sampleReader()), "", "show", "c1", "-f", "json")
		require.NoError(t, err)
		var got dashboard.ConversationDetail
		require.NoError(t, json.Unmarshal([]byte(out), &got))
		assert.Equal(t, "Chat assistant for a bakery", got.ResolvedPlanSummary)
		assert.Len(t, got.Transcript, 2)
		require.NotNil(t, got.Plan)
	})

	t.Run("yaml", func(t *testing.T) {
		out, err := execute(t, newTestApp(sampleReader()), "", "show", "c1", "-f", "yaml")
		require.NoError(t, err)
		assert.Contains(t, out, "resolved_plan_summary: Chat assistant for a bakery")
		assert.Contains(t, out, "transcript:")
	})
}

func TestShowMissingConversation(t *testing.T) {
	_, err := execute(t, newTestApp(sampleReader()), "", "show", "nope")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "conversation nope not found")
}

func TestShowRecordsAuditEvent(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a := newTestApp(sampleReader())
	a.cfg.AuditEnabled = true
	a.openAudit = func(context.Context) (*audit.Service, func(), error) {
		return audit.NewService(db, a.logger), func() {}, nil
	}
	mock.ExpectExec("INSERT INTO dashboard_audit_events").
		WithArgs(sqlmock.AnyArg(), "dashboard.conversation_viewed", nil, nil, "c1", sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	_, err = execute(t, a, "", "show", "c1", "-f", "json")
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestArchiveCommand(t *testing.T) {
	client := &recordingS3{}
	a := newTestApp(sampleReader())
	a.openArchive = func(context.Context) (*archive.Store, error) {
		return archive.NewStore(client, "luna-archive", a.logger), nil
	}

	out, err := execute(t, a, "", "archive", "c1")
	require.NoError(t, err)
	require.Len(t, client.keys, 2)
	assert.True(t, strings.HasSuffix(client.keys[0], "/c1.json"))
	assert.Contains(t, out, "archived c1 to "+client.keys[0])
}

func TestArchiveCommandWithoutBucket(t *testing.T) {
	_, err := execute(t, newTestApp(sampleReader()), "", "archive", "c1")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "archive not configured")
}

func TestAuditCommand(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a := newTestApp(sampleReader())
	a.openAudit = func(context.Context) (*audit.Service, func(), error) {
		return audit.NewService(db, a.logger), func() {}, nil
	}

	created := time.Date(2025, 6, 3, 9, 0, 0, 0, time.UTC)
	rows := sqlmock.NewRows([]string{"id", "event_type", "actor", "remote_ip", "conversation_id", "details", "created_at"}).
		AddRow("e1", "dashboard.login_failed", "someone@lunim.io", "10.0.0.9", nil, []byte(`{}`), created)
	mock.ExpectQuery("SELECT id, event_type").
		WithArgs("dashboard.login_failed").
		WillReturnRows(rows)

	out, err := execute(t, a, "", "audit", "--type", "dashboard.login_failed", "--limit", "5")
	require.NoError(t, err)
	assert.Contains(t, out, "2025-06-03T09:00:00Z")
	assert.Contains(t, out, "someone@lunim.io")
	assert.Contains(t, out, "dashboard.login_failed")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestAuditCommandEmpty(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	a := newTestApp(sampleReader())
	a.openAudit = func(context.Context) (*audit.Service, func(), error) {
		return audit.NewService(db, a.logger), func() {}, nil
	}
	mock.ExpectQuery("SELECT id, event_type").
		WillReturnRows(sqlmock.NewRows([]string{"id", "event_type", "actor", "remote_ip", "conversation_id", "details", "created_at"}))

	out, err := execute(t, a, "", "audit", "-f", "json")
	require.NoError(t, err)
	assert.Equal(t, "[]\n", out)
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
