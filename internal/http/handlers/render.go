package handlers

import (
	"bytes"
	"embed"
	"encoding/json"
	"errors"
	"html/template"
	"net/http"

	"github.com/lunim/luna-dashboard/internal/dashboard"
	"github.com/lunim/luna-dashboard/internal/http/middleware"
	"github.com/lunim/luna-dashboard/internal/pages"
	"github.com/lunim/luna-dashboard/pkg/logging"
)

//go:embed templates/*.html
var templateFS embed.FS

var pageTemplates = template.Must(template.ParseFS(templateFS, "templates/*.html"))

const retryLaterMessage = "Something went wrong while loading this page. Please try again."

// view is the root value handed to every page template.
type view struct {
	Title   string
	Refresh int
	Notice  string
	Page    any
}

// ErrorPage is rendered for not-found and failure outcomes.
type ErrorPage struct {
	Heading   string
	Message   string
	Retry     bool
	RetryPath string
}

func renderPage(w http.ResponseWriter, logger *logging.Logger, status int, name string, data view) {
	var buf bytes.Buffer
	if err := pageTemplates.ExecuteTemplate(&buf, name, data); err != nil {
		logger.Error("template render failed", "template", name, "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_, _ = w.Write(buf.Bytes())
}

func performRedirect(w http.ResponseWriter, r *http.Request, redirect *pages.Redirect) {
	if redirect.Cookie != nil {
		http.SetCookie(w, redirect.Cookie)
	}
	http.Redirect(w, r, redirect.Location, http.StatusSeeOther)
}

// renderFailure maps a page resolution error onto a response.
func renderFailure(w http.ResponseWriter, r *http.Request, logger *logging.Logger, err error) {
	if redirect, ok := pages.AsRedirect(err); ok {
		performRedirect(w, r, redirect)
		return
	}
	if errors.Is(err, pages.ErrNotFound) {
		renderPage(w, logger, http.StatusNotFound, "error", view{
			Title: "Not found",
			Page: ErrorPage{
				Heading: "Conversation not found",
				Message: "This conversation does not exist or is no longer available.",
			},
		})
		return
	}

	status, message := failureStatus(requestLogger(logger, r), err)
	renderPage(w, logger, status, "error", view{
		Title: "Unavailable",
		Page: ErrorPage{
			Heading:   "Unable to load conversations",
			Message:   message,
			Retry:     true,
			RetryPath: r.URL.Path,
		},
	})
}

// failureStatus returns the status and the caller-safe message for err.
func failureStatus(logger *logging.Logger, err error) (int, string) {
	var dataErr *dashboard.DataError
	if errors.As(err, &dataErr) {
		if dataErr.Is(dashboard.ErrStoreUnreachable) {
			return http.StatusServiceUnavailable, dataErr.Error()
		}
		return http.StatusInternalServerError, dataErr.Error()
	}
	logger.Error("unhandled request error", "error", err)
	return http.StatusInternalServerError, retryLaterMessage
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func jsonError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

func remoteIP(r *http.Request) string {
	return middleware.ClientIP(r)
}

// requestLogger tags logger with the request id assigned by RequestLogger.
func requestLogger(logger *logging.Logger, r *http.Request) *logging.Logger {
	if id := middleware.RequestIDFromContext(r.Context()); id != "" {
		return &logging.Logger{Logger: logger.With("request_id", id)}
	}
	return logger
}
