package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lunim/luna-dashboard/internal/dashboard"
)

// mockS3Client records PutObject/GetObject calls for testing.
type mockS3Client struct {
	putCalls []putCall
	objects  map[string][]byte
	getErr   error
}

type putCall struct {
	bucket string
	key    string
	body   []byte
}

func newMockS3() *mockS3Client {
	return &mockS3Client{objects: make(map[string][]byte)}
}

func (m *mockS3Client) PutObject(_ context.Context, input *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	body, _ := io.ReadAll(input.Body)
	m.putCalls = append(m.putCalls, putCall{bucket: *input.Bucket, key: *input.Key, body: body})
	m.objects[*input.Key] = body
	return &s3.PutObjectOutput{}, nil
}

func (m *mockS3Client) GetObject(_ context.Context, input *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
	if m.getErr != nil {
		return nil, m.getErr
	}
	data, ok := m.objects[*input.Key]
	if !ok {
		return nil, &s3types.NoSuchKey{}
	}
	return &s3.GetObjectOutput{Body: io.NopCloser(bytes.NewReader(data))}, nil
}

func fixedStore(client S3API) *Store {
	store := NewStore(client, "test-bucket", nil)
	store.now = func() time.Time { return time.Date(2026, 2, 12, 15, 0, 0, 0, time.UTC) }
	return store
}

func testRecord(privacy dashboard.PrivacyMode) *dashboard.ConversationRecord {
	return &dashboard.ConversationRecord{
		ConversationSummary: dashboard.ConversationSummary{
			ID:              "conv-123",
			SessionID:       "session-9",
			PrivacyMode:     privacy,
			InteractionMode: dashboard.InteractionText,
			CreatedAt:       time.Date(2026, 2, 11, 10, 0, 0, 0, time.UTC),
		},
		Messages:    json.RawMessage(`[{"role":"user","content":"email me at ada@example.com"},{"role":"luna","content":"Will do!"}]`),
		PlanDetails: json.RawMessage(`{"summary":"Scope an MVP","tags":["mvp"]}`),
	}
}

func TestStore_ArchiveConversation(t *testing.T) {
	mock := newMockS3()
	store := fixedStore(mock)

	key, err := store.ArchiveConversation(context.Background(), testRecord(dashboard.PrivacyOnTheRecord))
	require.NoError(t, err)
	assert.Equal(t, "conversations/v1/by-date/2026/02/12/conv-123.json", key)

	// Snapshot plus manifest.
	require.Len(t, mock.putCalls, 2)
	assert.Equal(t, "test-bucket", mock.putCalls[0].bucket)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(mock.putCalls[0].body, &snap))
	assert.Equal(t, SnapshotVersion, snap.Version)
	assert.Equal(t, "session-9", snap.SessionID)
	assert.Equal(t, "Scope an MVP", snap.PlanSummary)
	require.NotNil(t, snap.Plan)
	assert.Equal(t, []string{"mvp"}, snap.Plan.Tags)
	assert.Equal(t, 2, snap.MessageCount)
	assert.False(t, snap.Redacted)
	assert.Equal(t, "email me at ada@example.com", snap.Messages[0].Content)

	assert.Equal(t, "conversations/v1/manifests/2026-02.jsonl", mock.putCalls[1].key)
	var entry ManifestEntry
	require.NoError(t, json.Unmarshal(bytes.TrimSpace(mock.putCalls[1].body), &entry))
	assert.Equal(t, "conv-123", entry.ConversationID)
	assert.Equal(t, key, entry.S3Key)
}

func TestStore_ArchiveConfidentialIsRedacted(t *testing.T) {
	mock := newMockS3()
	store := fixedStore(mock)

	_, err := store.ArchiveConversation(context.Background(), testRecord(dashboard.PrivacyConfidential))
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(mock.putCalls[0].body, &snap))
	assert.True(t, snap.Redacted)
	assert.Equal(t, HashIdentifier("session-9"), snap.SessionID)
	assert.Equal(t, "email me at [EMAIL]", snap.Messages[0].Content)
}

func TestStore_ArchiveWithoutTranscript(t *testing.T) {
	mock := newMockS3()
	store := fixedStore(mock)

	rec := &dashboard.ConversationRecord{ConversationSummary: dashboard.ConversationSummary{ID: "conv-empty"}}
	_, err := store.ArchiveConversation(context.Background(), rec)
	require.NoError(t, err)

	var snap Snapshot
	require.NoError(t, json.Unmarshal(mock.putCalls[0].body, &snap))
	assert.Zero(t, snap.MessageCount)
	assert.NotNil(t, snap.Messages)
	assert.Nil(t, snap.Plan)
}

func TestStore_Disabled(t *testing.T) {
	store := NewStore(nil, "", nil)
	assert.False(t, store.Enabled())

	_, err := store.ArchiveConversation(context.Background(), testRecord(dashboard.PrivacyOnTheRecord))
	assert.ErrorIs(t, err, ErrDisabled)

	var nilStore *Store
	assert.False(t, nilStore.Enabled())
}

func TestStore_ManifestAppend(t *testing.T) {
	mock := newMockS3()
	store := fixedStore(mock)

	require.NoError(t, store.AppendManifest(context.Background(), ManifestEntry{ConversationID: "conv-1"}))
	require.NoError(t, store.AppendManifest(context.Background(), ManifestEntry{ConversationID: "conv-2"}))

	lastPut := mock.putCalls[len(mock.putCalls)-1]
	lines := bytes.Split(bytes.TrimSpace(lastPut.body), []byte("\n"))
	assert.Len(t, lines, 2)
}

func TestStore_ManifestReadFailureIsNotOverwritten(t *testing.T) {
	mock := newMockS3()
	mock.getErr = errors.New("AccessDenied")
	store := fixedStore(mock)

	key, err := store.ArchiveConversation(context.Background(), testRecord(dashboard.PrivacyOnTheRecord))
	require.NoError(t, err)
	assert.NotEmpty(t, key)
	// Only the snapshot is written when the manifest cannot be read.
	assert.Len(t, mock.putCalls, 1)
}
