package bootstrap

import (
	"context"
	"crypto/tls"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/redis/go-redis/v9"

	appconfig "github.com/lunim/luna-dashboard/internal/config"
	"github.com/lunim/luna-dashboard/internal/dashboard"
	"github.com/lunim/luna-dashboard/internal/observability/metrics"
	"github.com/lunim/luna-dashboard/pkg/logging"
)

// ErrMissingDatabaseURL is returned when DATABASE_URL is unset.
var ErrMissingDatabaseURL = errors.New("bootstrap: DATABASE_URL is required")

// BuildRedisClient returns a client for the conversation cache, or nil when
// Redis is not configured (or unreachable and verify is set).
func BuildRedisClient(ctx context.Context, cfg *appconfig.Config, logger *logging.Logger, verify bool) *redis.Client {
	if cfg == nil || strings.TrimSpace(cfg.RedisAddr) == "" {
		return nil
	}
	if logger == nil {
		logger = logging.Default()
	}
	if ctx == nil {
		ctx = context.Background()
	}

	redisOptions := &redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
	}
	if cfg.RedisTLS {
		redisOptions.TLSConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	}
	client := redis.NewClient(redisOptions)
	if !verify {
		return client
	}
	if err := client.Ping(ctx).Err(); err != nil {
		logger.Warn("redis not available, serving uncached", "error", err)
		_ = client.Close()
		return nil
	}
	return client
}

// BuildPool opens the pgx pool for the hosted conversation store. The pool
// connects lazily so an unreachable host surfaces on the first query.
func BuildPool(ctx context.Context, cfg *appconfig.Config) (*pgxpool.Pool, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, ErrMissingDatabaseURL
	}
	poolCfg, err := pgxpool.ParseConfig(cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: parse database url: %w", err)
	}
	poolCfg.MaxConns = 8
	pool, err := pgxpool.NewWithConfig(ctx, poolCfg)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open pool: %w", err)
	}
	return pool, nil
}

// BuildSQLDB opens a database/sql handle through the pgx driver for the audit
// log and migrations.
func BuildSQLDB(cfg *appconfig.Config) (*sql.DB, error) {
	if cfg == nil || strings.TrimSpace(cfg.DatabaseURL) == "" {
		return nil, ErrMissingDatabaseURL
	}
	db, err := sql.Open("pgx", cfg.DatabaseURL)
	if err != nil {
		return nil, fmt.Errorf("bootstrap: open sql db: %w", err)
	}
	return db, nil
}

// BuildDashboardService layers the Redis cache (when available) over the
// Postgres store and wraps both in the service.
func BuildDashboardService(store dashboard.Store, redisClient *redis.Client, cfg *appconfig.Config, m *metrics.DashboardMetrics, logger *logging.Logger) *dashboard.Service {
	if logger == nil {
		logger = logging.Default()
	}
	cached := dashboard.NewCachingStore(store, redisClient, cfg.CacheTTL, m, logger.Component("dashboard.cache"))
	return dashboard.NewService(cached, cfg.StoreTimeout, m, logger.Component("dashboard"))
}
