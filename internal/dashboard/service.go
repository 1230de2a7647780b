package dashboard

import (
	"context"
	"errors"
	"slices"
	"strings"
	"time"

	"github.com/lunim/luna-dashboard/internal/observability/metrics"
	"github.com/lunim/luna-dashboard/pkg/logging"
)

// DefaultTimeout bounds a single store call. Dashboard reads are never retried.
const DefaultTimeout = 5 * time.Second

// Service is the conversation data access boundary used by the pages.
type Service struct {
	store   Store
	timeout time.Duration
	metrics *metrics.DashboardMetrics
	logger  *logging.Logger
}

// NewService wraps store. A non-positive timeout uses DefaultTimeout.
func NewService(store Store, timeout time.Duration, m *metrics.DashboardMetrics, logger *logging.Logger) *Service {
	if store == nil {
		panic("dashboard: store required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &Service{
		store:   store,
		timeout: timeout,
		metrics: m,
		logger:  logger,
	}
}

// ListRecent returns all conversation summaries, newest first. It returns
// either the complete list or a *DataError.
func (s *Service) ListRecent(ctx context.Context) ([]ConversationSummary, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	summaries, err := s.store.ListSummaries(ctx)
	if err != nil {
		return nil, s.fail(err, "list", "recent conversations", start)
	}
	s.metrics.ObserveStoreQuery("list", "ok", time.Since(start).Seconds())

	if summaries == nil {
		summaries = []ConversationSummary{}
	}
	slices.SortStableFunc(summaries, func(a, b ConversationSummary) int {
		return b.CreatedAt.Compare(a.CreatedAt)
	})
	return summaries, nil
}

// FetchByID returns the full record, or nil when id is blank or no record
// matches. A blank id never reaches the store.
func (s *Service) FetchByID(ctx context.Context, id string) (*ConversationRecord, error) {
	if strings.TrimSpace(id) == "" {
		return nil, nil
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	start := time.Now()
	rec, err := s.store.GetByID(ctx, id)
	if errors.Is(err, ErrNotFound) {
		s.metrics.ObserveStoreQuery("get", "not_found", time.Since(start).Seconds())
		return nil, nil
	}
	if err != nil {
		return nil, s.fail(err, "get", "conversation", start)
	}
	s.metrics.ObserveStoreQuery("get", "ok", time.Since(start).Seconds())
	return rec, nil
}

// fail logs the raw error and returns its sanitized form.
func (s *Service) fail(err error, operation, label string, start time.Time) error {
	dataErr := Classify(err, label)
	outcome := "failed"
	if dataErr.Kind == ErrStoreUnreachable {
		outcome = "unreachable"
	}
	s.metrics.ObserveStoreQuery(operation, outcome, time.Since(start).Seconds())
	s.logger.Error("dashboard store error",
		"context", label,
		"kind", outcome,
		"error", err,
	)
	return dataErr
}
