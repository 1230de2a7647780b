package router

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/lunim/luna-dashboard/internal/http/handlers"
	httpmiddleware "github.com/lunim/luna-dashboard/internal/http/middleware"
	"github.com/lunim/luna-dashboard/pkg/logging"
)

// Config holds router configuration
type Config struct {
	Logger             *logging.Logger
	Dashboard          *handlers.DashboardHandler
	API                *handlers.APIConversationsHandler
	Health             http.Handler
	MetricsHandler     http.Handler
	LoginLimiter       *httpmiddleware.RateLimiter
	AdminAuthSecret    string
	CORSAllowedOrigins []string
}

// New creates a new Chi router with all routes configured
func New(cfg *Config) http.Handler {
	if cfg.Dashboard == nil {
		panic("router: dashboard handler is required")
	}
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(httpmiddleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recoverer)
	r.Use(middleware.Compress(5))

	// Public endpoints (health checks, metrics)
	r.Group(func(public chi.Router) {
		if cfg.Health != nil {
			public.Handle("/health", cfg.Health)
		}
		if cfg.MetricsHandler != nil {
			public.Handle("/metrics", cfg.MetricsHandler)
		}
	})

	// Session-gated pages. The page resolvers redirect anonymous visitors.
	r.Group(func(site chi.Router) {
		site.Get("/", cfg.Dashboard.Root)
		site.Get("/login", cfg.Dashboard.LoginForm)
		site.With(httpmiddleware.RateLimit(cfg.LoginLimiter, cfg.Logger)).Post("/login", cfg.Dashboard.Login)
		site.Post("/logout", cfg.Dashboard.Logout)
		site.Route("/dashboard", func(d chi.Router) {
			d.Get("/", cfg.Dashboard.Dashboard)
			d.Get("/{id}", cfg.Dashboard.Detail)
			d.Get("/{id}/export", cfg.Dashboard.Export)
			d.Post("/{id}/archive", cfg.Dashboard.Archive)
		})
	})

	// JSON API (bearer token)
	if cfg.API != nil && cfg.AdminAuthSecret != "" {
		r.Route("/api", func(api chi.Router) {
			if len(cfg.CORSAllowedOrigins) > 0 {
				api.Use(httpmiddleware.CORS(cfg.CORSAllowedOrigins))
			}
			api.Use(httpmiddleware.AdminJWT(cfg.AdminAuthSecret))
			api.Get("/conversations", cfg.API.ListConversations)
			api.Get("/conversations/{id}", cfg.API.GetConversation)
		})
	}

	r.NotFound(cfg.Dashboard.NotFound)
	return r
}
