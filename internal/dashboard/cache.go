package dashboard

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"

	"github.com/lunim/luna-dashboard/internal/observability/metrics"
	"github.com/lunim/luna-dashboard/pkg/logging"
)

const (
	cacheKeyPrefix      = "luna:dashboard:"
	recentCacheKey      = cacheKeyPrefix + "recent"
	conversationKeyBase = cacheKeyPrefix + "conversation:"
)

// CachingStore serves store results from Redis for a fixed time-to-live.
// Entries are only ever replaced by expiry; errors and misses are not cached.
type CachingStore struct {
	next    Store
	redis   *redis.Client
	ttl     time.Duration
	tracer  trace.Tracer
	metrics *metrics.DashboardMetrics
	logger  *logging.Logger
}

// NewCachingStore wraps next. It returns next unchanged when client is nil or
// ttl is not positive.
func NewCachingStore(next Store, client *redis.Client, ttl time.Duration, m *metrics.DashboardMetrics, logger *logging.Logger) Store {
	if client == nil || ttl <= 0 {
		return next
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &CachingStore{
		next:    next,
		redis:   client,
		ttl:     ttl,
		tracer:  otel.Tracer("luna.internal.dashboard.cache"),
		metrics: m,
		logger:  logger,
	}
}

func (c *CachingStore) ListSummaries(ctx context.Context) ([]ConversationSummary, error) {
	ctx, span := c.tracer.Start(ctx, "dashboard.cache.list_summaries")
	defer span.End()

	var cached []ConversationSummary
	if c.load(ctx, recentCacheKey, &cached) {
		c.metrics.ObserveCache("list", true)
		return cached, nil
	}
	c.metrics.ObserveCache("list", false)

	summaries, err := c.next.ListSummaries(ctx)
	if err != nil {
		return nil, err
	}
	c.save(ctx, recentCacheKey, summaries)
	return summaries, nil
}

func (c *CachingStore) GetByID(ctx context.Context, id string) (*ConversationRecord, error) {
	ctx, span := c.tracer.Start(ctx, "dashboard.cache.get_by_id")
	defer span.End()

	key := conversationKeyBase + id
	var cached ConversationRecord
	if c.load(ctx, key, &cached) {
		c.metrics.ObserveCache("get", true)
		return &cached, nil
	}
	c.metrics.ObserveCache("get", false)

	rec, err := c.next.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.save(ctx, key, rec)
	return rec, nil
}

func (c *CachingStore) load(ctx context.Context, key string, dst any) bool {
	data, err := c.redis.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			c.logger.Warn("dashboard cache read failed", "key", key, "error", err)
		}
		return false
	}
	if err := json.Unmarshal(data, dst); err != nil {
		c.logger.Warn("dashboard cache entry corrupt", "key", key, "error", err)
		return false
	}
	return true
}

func (c *CachingStore) save(ctx context.Context, key string, value any) {
	data, err := json.Marshal(value)
	if err != nil {
		c.logger.Warn("dashboard cache encode failed", "key", key, "error", err)
		return
	}
	if err := c.redis.Set(ctx, key, data, c.ttl).Err(); err != nil {
		c.logger.Warn("dashboard cache write failed", "key", key, "error", err)
	}
}
