package config

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/lunim/luna-dashboard/internal/auth"
)

// Defaults for the single shared dashboard account.
const (
	DefaultDashboardEmail        = "hello@lunim.io"
	DefaultDashboardPasswordHash = "c97a497c6f44e9b915fd50b7217a407b9552f4514e5ccd97f9876409d6aca402"
)

// Config holds application configuration
type Config struct {
	Port               string
	Env                string
	LogLevel           string
	DatabaseURL        string
	ConversationsTable string
	RedisAddr          string
	RedisPassword      string
	RedisTLS           bool
	CacheTTL           time.Duration
	StoreTimeout       time.Duration
	CORSAllowedOrigins []string

	// Session gate
	DashboardEmail        string
	DashboardPasswordHash string
	SessionMaxAge         time.Duration
	LoginRatePerSecond    float64
	LoginRateBurst        int

	// Programmatic API
	AdminJWTSecret string

	AuditEnabled bool

	// Transcript archive
	ArchiveBucket       string
	AWSRegion           string
	AWSAccessKeyID      string
	AWSSecretAccessKey  string
	AWSEndpointOverride string
}

// Load reads configuration from environment variables
func Load() *Config {
	return &Config{
		Port:               getEnv("PORT", "8080"),
		Env:                getEnv("ENV", "development"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		DatabaseURL:        getEnv("DATABASE_URL", ""),
		ConversationsTable: getEnv("CONVERSATIONS_TABLE", "luna_conversations"),
		RedisAddr:          getEnv("REDIS_ADDR", ""),
		RedisPassword:      getEnv("REDIS_PASSWORD", ""),
		RedisTLS:           getEnvAsBool("REDIS_TLS", false),
		CacheTTL:           getEnvAsDuration("CACHE_TTL", 30*time.Second),
		StoreTimeout:       getEnvAsDuration("STORE_TIMEOUT", 5*time.Second),
		CORSAllowedOrigins: getEnvAsList("CORS_ALLOWED_ORIGINS"),

		DashboardEmail:        getEnv("DASHBOARD_EMAIL", DefaultDashboardEmail),
		DashboardPasswordHash: strings.ToLower(getEnv("DASHBOARD_PASSWORD_HASH", DefaultDashboardPasswordHash)),
		SessionMaxAge:         getEnvAsDuration("SESSION_MAX_AGE", auth.DefaultMaxAge),
		LoginRatePerSecond:    getEnvAsFloat("LOGIN_RATE_PER_SECOND", 0.2),
		LoginRateBurst:        getEnvAsInt("LOGIN_RATE_BURST", 5),

		AdminJWTSecret: getEnv("ADMIN_JWT_SECRET", ""),

		AuditEnabled: getEnvAsBool("AUDIT_ENABLED", false),

		ArchiveBucket:       getEnv("ARCHIVE_BUCKET", ""),
		AWSRegion:           getEnv("AWS_REGION", "us-east-1"),
		AWSAccessKeyID:      getEnv("AWS_ACCESS_KEY_ID", ""),
		AWSSecretAccessKey:  getEnv("AWS_SECRET_ACCESS_KEY", ""),
		AWSEndpointOverride: getEnv("AWS_ENDPOINT_OVERRIDE", ""),
	}
}

// IsProduction reports whether secure-only cookies should be issued.
func (c *Config) IsProduction() bool {
	switch strings.ToLower(strings.TrimSpace(c.Env)) {
	case "production", "prod":
		return true
	}
	return false
}

// AuthConfig builds the read-only session gate configuration.
func (c *Config) AuthConfig() auth.Config {
	return auth.Config{
		Email:        c.DashboardEmail,
		PasswordHash: c.DashboardPasswordHash,
		CookieName:   auth.CookieName,
		CookieValue:  auth.SentinelToken,
		MaxAge:       c.SessionMaxAge,
		Secure:       c.IsProduction(),
	}
}

// getEnv retrieves an environment variable or returns a default value
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer or returns a default value
func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean or returns a default value
func getEnvAsBool(key string, defaultValue bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return defaultValue
	}
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsList(key string) []string {
	raw := strings.TrimSpace(getEnv(key, ""))
	if raw == "" {
		return nil
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
