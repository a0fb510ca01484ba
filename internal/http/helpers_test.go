package http

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/auth"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/chat"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/observability"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/storage"
)

func newTestServer(t *testing.T) (*Server, http.Handler) {
	t.Helper()

	mux := http.NewServeMux()
	logger := observability.NewLogger(observability.Config{Output: io.Discard})
	chatStore := chat.NewStore(storage.NewMemoryKV(), chat.NewBus(), logger, nil)

	srv := NewServer(mux, Options{
		Logger:      logger,
		Books:       storage.NewMemoryBookStore(),
		Users:       auth.NewMemoryUserStore(),
		Sessions:    auth.NewMemorySessionStore(),
		Chat:        chatStore,
		EmailDomain: "mnnit.ac.in",
	})
	srv.RegisterRoutes()

	handler := ApplyMiddlewares(mux,
		RequestIDMiddleware(),
		SessionMiddleware(srv.sessions, srv.users),
	)
	return srv, handler
}

func doJSON(t *testing.T, handler http.Handler, method, path string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, c := range cookies {
		req.AddCookie(c)
	}
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	if err := json.Unmarshal(rec.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", rec.Body.String(), err)
	}
}

// registerUser registers a student through the API and returns the session
// cookie plus the assigned user ID.
func registerUser(t *testing.T, handler http.Handler, name, email string) (*http.Cookie, string) {
	t.Helper()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":     name,
		"email":    email,
		"password": "hunter22",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register %s: status %d body %s", email, rec.Code, rec.Body.String())
	}

	var user struct {
		ID string `json:"id"`
	}
	decodeBody(t, rec, &user)

	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			return c, user.ID
		}
	}
	t.Fatalf("no session cookie in register response")
	return nil, ""
}
