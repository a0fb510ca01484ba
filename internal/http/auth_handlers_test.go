package http

import (
	"net/http"
	"testing"
)

func TestRegisterAndMe(t *testing.T) {
	_, handler := newTestServer(t)

	cookie, userID := registerUser(t, handler, "Alice", "alice@mnnit.ac.in")
	if userID == "" {
		t.Fatal("empty user ID")
	}

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/auth/me", nil, cookie)
	if rec.Code != http.StatusOK {
		t.Fatalf("me: status %d", rec.Code)
	}
	var me struct {
		ID    string `json:"id"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	decodeBody(t, rec, &me)
	if me.ID != userID || me.Name != "Alice" || me.Email != "alice@mnnit.ac.in" {
		t.Fatalf("me = %+v", me)
	}
}

func TestRegisterRejectsOutsideDomain(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":     "Eve",
		"email":    "eve@gmail.com",
		"password": "hunter22",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRegisterRejectsShortPassword(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":     "Alice",
		"email":    "alice@mnnit.ac.in",
		"password": "12345",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", rec.Code)
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	_, handler := newTestServer(t)

	registerUser(t, handler, "Alice", "alice@mnnit.ac.in")
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/register", map[string]string{
		"name":     "Other Alice",
		"email":    "Alice@mnnit.ac.in",
		"password": "hunter22",
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409", rec.Code)
	}
}

func TestLoginLogout(t *testing.T) {
	_, handler := newTestServer(t)
	registerUser(t, handler, "Alice", "alice@mnnit.ac.in")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@mnnit.ac.in",
		"password": "hunter22",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: status %d body %s", rec.Code, rec.Body.String())
	}
	var cookie *http.Cookie
	for _, c := range rec.Result().Cookies() {
		if c.Name == SessionCookieName {
			cookie = c
		}
	}
	if cookie == nil {
		t.Fatal("no session cookie on login")
	}

	rec = doJSON(t, handler, http.MethodPost, "/api/v1/auth/logout", nil, cookie)
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout: status %d", rec.Code)
	}

	rec = doJSON(t, handler, http.MethodGet, "/api/v1/auth/me", nil, cookie)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("me after logout: status %d, want 401", rec.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	_, handler := newTestServer(t)
	registerUser(t, handler, "Alice", "alice@mnnit.ac.in")

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@mnnit.ac.in",
		"password": "wrong-password",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLoginUnknownUserSameResponse(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "nobody@mnnit.ac.in",
		"password": "hunter22",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLoginAttemptsAreCapped(t *testing.T) {
	_, handler := newTestServer(t)
	registerUser(t, handler, "Alice", "alice@mnnit.ac.in")

	body := map[string]string{
		"email":    "alice@mnnit.ac.in",
		"password": "wrong-password",
	}

	// The per-IP budget admits the first attempts, failed or not.
	for i := 0; i < DefaultLoginAttemptsPerMinute; i++ {
		rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", body)
		if rec.Code != http.StatusUnauthorized {
			t.Fatalf("attempt %d: status %d, want 401", i+1, rec.Code)
		}
	}

	// The next attempt is throttled even with correct credentials.
	rec := doJSON(t, handler, http.MethodPost, "/api/v1/auth/login", map[string]string{
		"email":    "alice@mnnit.ac.in",
		"password": "hunter22",
	})
	if rec.Code != http.StatusTooManyRequests {
		t.Fatalf("status = %d, want 429", rec.Code)
	}
	if rec.Header().Get("Retry-After") != "60" {
		t.Errorf("Retry-After = %q, want 60", rec.Header().Get("Retry-After"))
	}
}

func TestMeUnauthenticated(t *testing.T) {
	_, handler := newTestServer(t)

	rec := doJSON(t, handler, http.MethodGet, "/api/v1/auth/me", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}
