// Package archive writes point-in-time conversation snapshots to S3.
package archive

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/lunim/luna-dashboard/internal/dashboard"
	"github.com/lunim/luna-dashboard/pkg/logging"
)

// ErrDisabled is returned when no bucket is configured.
var ErrDisabled = errors.New("archive: not configured")

// S3API is the subset of the S3 client used by Store.
type S3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

// Store archives conversation snapshots. It never writes back to the
// conversation store.
type Store struct {
	bucket   string
	s3Client S3API
	logger   *logging.Logger
	now      func() time.Time
}

// NewStore creates an archive Store. With an empty bucket it reports disabled.
func NewStore(s3Client S3API, bucket string, logger *logging.Logger) *Store {
	if logger == nil {
		logger = logging.Default()
	}
	return &Store{bucket: bucket, s3Client: s3Client, logger: logger, now: time.Now}
}

// Enabled reports whether archival is configured.
func (s *Store) Enabled() bool {
	return s != nil && s.bucket != "" && s.s3Client != nil
}

// ArchiveConversation writes rec as JSON and appends it to the monthly
// manifest. It returns the object key.
func (s *Store) ArchiveConversation(ctx context.Context, rec *dashboard.ConversationRecord) (string, error) {
	if !s.Enabled() {
		return "", ErrDisabled
	}
	if rec == nil {
		return "", errors.New("archive: nil record")
	}

	now := s.now().UTC()
	snap := NewSnapshot(rec, now)
	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("archive: marshal snapshot: %w", err)
	}

	key := fmt.Sprintf("conversations/v1/by-date/%d/%02d/%02d/%s.json",
		now.Year(), now.Month(), now.Day(), rec.ID)

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(data),
		ContentType: aws.String("application/json"),
	})
	if err != nil {
		return "", fmt.Errorf("archive: s3 put %s: %w", key, err)
	}

	s.logger.Info("archived conversation to S3",
		"conversation_id", rec.ID,
		"s3_key", key,
		"message_count", snap.MessageCount,
		"redacted", snap.Redacted,
	)

	entry := ManifestEntry{
		ConversationID: rec.ID,
		S3Key:          key,
		PrivacyMode:    string(rec.PrivacyMode),
		Redacted:       snap.Redacted,
		ArchivedAt:     now.Format(time.RFC3339),
		MessageCount:   snap.MessageCount,
	}
	if err := s.AppendManifest(ctx, entry); err != nil {
		s.logger.Warn("failed to append manifest", "error", err, "conversation_id", rec.ID)
	}
	return key, nil
}

// AppendManifest appends a JSONL line to the monthly manifest. S3 has no
// append, so this is read-modify-write.
func (s *Store) AppendManifest(ctx context.Context, entry ManifestEntry) error {
	if !s.Enabled() {
		return ErrDisabled
	}

	line, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("archive: marshal manifest entry: %w", err)
	}

	now := s.now().UTC()
	manifestKey := fmt.Sprintf("conversations/v1/manifests/%d-%02d.jsonl", now.Year(), now.Month())

	var existing []byte
	getResp, err := s.s3Client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(manifestKey),
	})
	switch {
	case err == nil:
		existing, err = io.ReadAll(getResp.Body)
		getResp.Body.Close()
		if err != nil {
			return fmt.Errorf("archive: read manifest: %w", err)
		}
	case isNotFound(err):
		s.logger.Debug("manifest not found, creating new", "key", manifestKey)
	default:
		return fmt.Errorf("archive: s3 get manifest: %w", err)
	}

	var buf bytes.Buffer
	if len(existing) > 0 {
		buf.Write(existing)
		if existing[len(existing)-1] != '\n' {
			buf.WriteByte('\n')
		}
	}
	buf.Write(line)
	buf.WriteByte('\n')

	_, err = s.s3Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(manifestKey),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/x-ndjson"),
	})
	if err != nil {
		return fmt.Errorf("archive: s3 put manifest: %w", err)
	}
	return nil
}

func isNotFound(err error) bool {
	var nsk *s3types.NoSuchKey
	if errors.As(err, &nsk) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "NoSuchKey") || strings.Contains(msg, "StatusCode: 404")
}
