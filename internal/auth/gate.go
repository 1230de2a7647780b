// Package auth implements the session gate guarding the internal dashboard.
//
// There is a single shared account. A successful login sets a fixed sentinel
// cookie; every protected request only checks that the cookie is present and
// exactly equal to that sentinel.
package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"
	"time"
)

const (
	// CookieName is the session cookie set after login.
	CookieName = "lunaDashboardAuth"
	// SentinelToken is the only value that marks a session as authenticated.
	SentinelToken = "authenticated"
	// DefaultMaxAge is the session lifetime.
	DefaultMaxAge = 8 * time.Hour
)

// SessionToken is the opaque value stored in the session cookie.
type SessionToken string

// Config is the read-only gate configuration, built once at startup.
type Config struct {
	Email        string
	PasswordHash string // hex-encoded SHA-256 of the shared password
	CookieName   string
	CookieValue  string
	MaxAge       time.Duration
	Secure       bool
}

// SameSite returns the same-site mode used for the session cookie.
func (c Config) SameSite() http.SameSite {
	return http.SameSiteLaxMode
}

// Gate verifies credentials and validates session tokens.
type Gate struct {
	cfg    Config
	digest []byte
}

// NewGate validates cfg and returns a gate. Empty cookie fields fall back to
// the package defaults.
func NewGate(cfg Config) (*Gate, error) {
	if strings.TrimSpace(cfg.Email) == "" {
		return nil, ErrMissingEmail
	}
	digest, err := hex.DecodeString(strings.TrimSpace(cfg.PasswordHash))
	if err != nil || len(digest) != sha256.Size {
		return nil, ErrInvalidPasswordHash
	}
	if cfg.CookieName == "" {
		cfg.CookieName = CookieName
	}
	if cfg.CookieValue == "" {
		cfg.CookieValue = SentinelToken
	}
	if cfg.MaxAge <= 0 {
		cfg.MaxAge = DefaultMaxAge
	}
	return &Gate{cfg: cfg, digest: digest}, nil
}

// CookieName returns the configured session cookie name.
func (g *Gate) CookieName() string {
	return g.cfg.CookieName
}

// VerifyPassword hashes candidate and compares it to the reference digest in
// constant time.
func (g *Gate) VerifyPassword(candidate string) bool {
	sum := sha256.Sum256([]byte(candidate))
	if len(sum) != len(g.digest) {
		return false
	}
	return subtle.ConstantTimeCompare(sum[:], g.digest) == 1
}

// Authenticate checks the shared account credentials and returns a session token.
func (g *Gate) Authenticate(email, password string) (SessionToken, error) {
	// Both checks always run so a wrong email costs the same as a wrong password.
	emailOK := subtle.ConstantTimeCompare([]byte(email), []byte(g.cfg.Email)) == 1
	passwordOK := g.VerifyPassword(password)
	if !emailOK || !passwordOK {
		return "", ErrInvalidCredentials
	}
	return g.IssueSession(), nil
}

// IssueSession returns the sentinel token. Callers persist it with SessionCookie.
func (g *Gate) IssueSession() SessionToken {
	return SessionToken(g.cfg.CookieValue)
}

// IsAuthenticated reports whether a present token exactly matches the sentinel.
func (g *Gate) IsAuthenticated(token SessionToken, present bool) bool {
	if !present || token == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(token), []byte(g.cfg.CookieValue)) == 1
}

// SessionCookie builds the cookie that persists token.
func (g *Gate) SessionCookie(token SessionToken) *http.Cookie {
	return &http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    string(token),
		Path:     "/",
		MaxAge:   int(g.cfg.MaxAge / time.Second),
		HttpOnly: true,
		Secure:   g.cfg.Secure,
		SameSite: g.cfg.SameSite(),
	}
}

// ClearCookie builds a cookie that removes the session on the client.
func (g *Gate) ClearCookie() *http.Cookie {
	return &http.Cookie{
		Name:     g.cfg.CookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   g.cfg.Secure,
		SameSite: g.cfg.SameSite(),
	}
}

// TokenFromRequest extracts the session token from r, if any.
func (g *Gate) TokenFromRequest(r *http.Request) (SessionToken, bool) {
	c, err := r.Cookie(g.cfg.CookieName)
	if err != nil {
		return "", false
	}
	return SessionToken(c.Value), true
}

// RequestAuthenticated is IsAuthenticated applied to the request cookie.
func (g *Gate) RequestAuthenticated(r *http.Request) bool {
	return g.IsAuthenticated(g.TokenFromRequest(r))
}

// HashPassword returns the hex SHA-256 digest used as the reference hash.
func HashPassword(plain string) string {
	sum := sha256.Sum256([]byte(plain))
	return hex.EncodeToString(sum[:])
}
