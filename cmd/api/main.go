package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lunim/luna-dashboard/cmd/mainconfig"
	"github.com/lunim/luna-dashboard/internal/api/router"
	"github.com/lunim/luna-dashboard/internal/app/bootstrap"
	"github.com/lunim/luna-dashboard/internal/archive"
	"github.com/lunim/luna-dashboard/internal/audit"
	"github.com/lunim/luna-dashboard/internal/auth"
	appconfig "github.com/lunim/luna-dashboard/internal/config"
	"github.com/lunim/luna-dashboard/internal/dashboard"
	"github.com/lunim/luna-dashboard/internal/http/handlers"
	httpmiddleware "github.com/lunim/luna-dashboard/internal/http/middleware"
	"github.com/lunim/luna-dashboard/internal/observability/metrics"
	"github.com/lunim/luna-dashboard/internal/pages"
	"github.com/lunim/luna-dashboard/pkg/logging"
)

func main() {
	// Best effort: a local .env is optional.
	_ = godotenv.Load()
	cfg := appconfig.Load()

	logger := logging.New(cfg.LogLevel)
	logger.Info("starting luna dashboard",
		"env", cfg.Env,
		"port", cfg.Port,
	)

	if err := run(cfg, logger); err != nil {
		logger.Error("dashboard exited", "error", err)
		os.Exit(1)
	}
	fmt.Println("Server exited gracefully")
}

func run(cfg *appconfig.Config, logger *logging.Logger) error {
	ctx := context.Background()

	gate, err := auth.NewGate(cfg.AuthConfig())
	if err != nil {
		return fmt.Errorf("session gate: %w", err)
	}

	metricsHandler, m := setupMetrics()

	pool, err := bootstrap.BuildPool(ctx, cfg)
	if err != nil {
		return err
	}
	defer pool.Close()

	redisClient := bootstrap.BuildRedisClient(ctx, cfg, logger, true)
	if redisClient != nil {
		defer redisClient.Close()
	}

	store := dashboard.NewPostgresStore(pool, cfg.ConversationsTable)
	service := bootstrap.BuildDashboardService(store, redisClient, cfg, m, logger)

	var auditSvc *audit.Service
	if cfg.AuditEnabled {
		sqlDB, err := bootstrap.BuildSQLDB(cfg)
		if err != nil {
			return err
		}
		defer sqlDB.Close()
		auditSvc = audit.NewService(sqlDB, logger.Component("audit"))
	}

	var archiveStore *archive.Store
	if cfg.ArchiveBucket != "" {
		awsCfg, err := mainconfig.LoadAWSConfig(ctx, cfg)
		if err != nil {
			return fmt.Errorf("aws config: %w", err)
		}
		archiveStore = archive.NewStore(mainconfig.NewS3Client(awsCfg, cfg), cfg.ArchiveBucket, logger.Component("archive"))
	}

	checks := map[string]handlers.HealthCheck{
		"postgres": pool.Ping,
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	limiter := httpmiddleware.NewRateLimiter(cfg.LoginRatePerSecond, cfg.LoginRateBurst)
	defer limiter.Close()

	r := router.New(&router.Config{
		Logger:             logger,
		Dashboard:          handlers.NewDashboardHandler(pages.NewResolver(gate, service, cfg.CacheTTL), auditSvc, archiveStore, m, logger),
		API:                handlers.NewAPIConversationsHandler(service, auditSvc, logger),
		Health:             handlers.NewHealthHandler(checks, logger),
		MetricsHandler:     metricsHandler,
		LoginLimiter:       limiter,
		AdminAuthSecret:    cfg.AdminJWTSecret,
		CORSAllowedOrigins: cfg.CORSAllowedOrigins,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Info("server listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	select {
	case err := <-serverErr:
		return fmt.Errorf("server: %w", err)
	case <-quit:
	}

	logger.Info("shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server forced to shutdown: %w", err)
	}
	logger.Info("server stopped")
	return nil
}

// setupMetrics builds a private registry with runtime collectors and the
// dashboard series, and returns its scrape handler.
func setupMetrics() (http.Handler, *metrics.DashboardMetrics) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	m := metrics.NewDashboardMetrics(reg)
	return promhttp.HandlerFor(reg, promhttp.HandlerOpts{}), m
}
