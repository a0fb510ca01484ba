// Package http implements the Book Exchange Hub HTTP API and serves the
// embedded web UI.
package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/getsentry/sentry-go"

	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/auth"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/chat"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/observability"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/storage"
	webui "github.com/gaurav05-coder/Book-Exchange-Hub/web"
)

// SessionCookieName is the cookie carrying the session ID.
const SessionCookieName = "bookhub_session"

type apiError struct {
	Error  string `json:"error"`
	Detail string `json:"detail,omitempty"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// Server holds the HTTP handlers and their dependencies.
type Server struct {
	mux     *http.ServeMux
	logger  observability.Logger
	metrics *observability.Metrics

	books    storage.BookStore
	users    auth.UserStore
	sessions auth.SessionStore
	chat     *chat.Store

	emailDomain string
	sessionTTL  time.Duration
	loginLimit  Middleware

	oidc *oidcState
}

// DefaultLoginAttemptsPerMinute is the fixed per-IP login budget applied to
// the login route on top of the general rate limiter.
const DefaultLoginAttemptsPerMinute = 5

// Options configures a Server.
type Options struct {
	Logger   observability.Logger
	Metrics  *observability.Metrics
	Books    storage.BookStore
	Users    auth.UserStore
	Sessions auth.SessionStore
	Chat     *chat.Store

	// EmailDomain restricts registration and login to addresses under this
	// domain. Empty disables the restriction.
	EmailDomain string
	// SessionTTL is the lifetime of new sessions. Non-positive values fall
	// back to auth.DefaultSessionDuration.
	SessionTTL time.Duration
	// LoginAttemptsPerMinute caps per-IP login attempts. Zero falls back to
	// DefaultLoginAttemptsPerMinute; negative disables the cap.
	LoginAttemptsPerMinute int
}

// NewServer creates a Server registering nothing yet; call RegisterRoutes.
func NewServer(mux *http.ServeMux, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = observability.NewLogger(observability.DefaultConfig())
	}
	attempts := opts.LoginAttemptsPerMinute
	if attempts == 0 {
		attempts = DefaultLoginAttemptsPerMinute
	}
	return &Server{
		mux:         mux,
		logger:      logger.WithComponent("http"),
		metrics:     opts.Metrics,
		books:       opts.Books,
		users:       opts.Users,
		sessions:    opts.Sessions,
		chat:        opts.Chat,
		emailDomain: opts.EmailDomain,
		sessionTTL:  opts.SessionTTL,
		loginLimit:  LoginRateLimitMiddleware(LoginRateLimitConfig{AttemptsPerMinute: attempts}, logger),
	}
}

// RegisterRoutes registers all API endpoints and the static index.
func (s *Server) RegisterRoutes() {
	s.mux.HandleFunc("/healthz", s.handleHealth)
	s.mux.HandleFunc("/readyz", s.handleReady)

	s.mux.HandleFunc("/api/v1/auth/register", s.handleRegister)
	s.mux.Handle("/api/v1/auth/login", s.loginLimit(http.HandlerFunc(s.handleLogin)))
	s.mux.HandleFunc("/api/v1/auth/logout", s.handleLogout)
	s.mux.HandleFunc("/api/v1/auth/me", s.handleMe)

	s.mux.HandleFunc("/api/v1/books", s.handleBooks)
	s.mux.HandleFunc("/api/v1/books/", s.handleBooksSubroutes)

	s.mux.HandleFunc("/api/v1/conversations", s.handleUserConversations)
	s.mux.HandleFunc("/api/v1/chat/stream", s.handleChatStream)

	if s.oidc != nil {
		s.mux.HandleFunc("/api/v1/auth/oidc/login", s.handleOIDCLogin)
		s.mux.HandleFunc("/api/v1/auth/oidc/callback", s.handleOIDCCallback)
	}

	// Static index
	s.mux.HandleFunc("/", s.handleIndex)
}

// writeErr logs the error, reports 5xx responses to Sentry, and writes the
// JSON error body.
func (s *Server) writeErr(ctx context.Context, w http.ResponseWriter, code int, msg, detail string) {
	attrs := []any{"status", code, "error", msg}
	if detail != "" {
		attrs = append(attrs, "detail", detail)
	}
	if code >= 500 {
		s.logger.ErrorContext(ctx, "request failed", attrs...)
		sentry.CaptureMessage(fmt.Sprintf("HTTP %d: %s (detail: %s)", code, msg, detail))
	} else {
		s.logger.WarnContext(ctx, "request rejected", attrs...)
	}
	writeJSON(w, code, apiError{Error: msg, Detail: detail})
}

// writeStoreErr maps storage errors to HTTP status codes.
func (s *Server) writeStoreErr(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		s.writeErr(ctx, w, http.StatusNotFound, "not found", "")
	case errors.Is(err, storage.ErrConflict):
		s.writeErr(ctx, w, http.StatusConflict, "conflict", err.Error())
	case errors.Is(err, storage.ErrValidation):
		s.writeErr(ctx, w, http.StatusBadRequest, "validation failed", err.Error())
	default:
		s.writeErr(ctx, w, http.StatusInternalServerError, "internal error", err.Error())
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// ReadinessResponse is the JSON body of the readiness check endpoint.
type ReadinessResponse struct {
	Status string            `json:"status"`
	Checks map[string]string `json:"checks"`
}

// handleReady verifies that dependencies are reachable, unlike /healthz
// which only reports liveness. Returns 503 when any check fails.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeErr(r.Context(), w, http.StatusMethodNotAllowed, "method not allowed", "")
		return
	}

	ctx := r.Context()
	checks := make(map[string]string)
	status := "ok"

	// Database check: use Ping if the book store supports it, otherwise
	// fall back to a list query.
	type pinger interface {
		Ping(ctx context.Context) error
	}
	var err error
	if hc, ok := s.books.(pinger); ok {
		err = hc.Ping(ctx)
	} else {
		_, err = s.books.ListBooks(ctx, storage.BookFilter{})
	}
	if err != nil {
		checks["database"] = "error"
		status = "unhealthy"
		s.logger.ErrorContext(ctx, "readiness check failed", "check", "database", "error", err.Error())
	} else {
		checks["database"] = "ok"
	}

	resp := ReadinessResponse{Status: status, Checks: checks}
	if status == "ok" {
		writeJSON(w, http.StatusOK, resp)
	} else {
		writeJSON(w, http.StatusServiceUnavailable, resp)
	}
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/" {
		s.writeErr(r.Context(), w, http.StatusNotFound, "not found", "")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(webui.IndexHTML)
}

// currentUser returns the authenticated user or writes a 401.
func (s *Server) currentUser(w http.ResponseWriter, r *http.Request) *auth.User {
	user := auth.UserFromContext(r.Context())
	if user == nil {
		s.writeErr(r.Context(), w, http.StatusUnauthorized, "authentication required", "")
		return nil
	}
	return user
}
