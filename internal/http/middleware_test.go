package http

import (
	"bufio"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/observability"
)

func TestRequestIDMiddlewareGenerates(t *testing.T) {
	var seen string
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.RequestIDFromContext(r.Context())
	})
	handler := RequestIDMiddleware()(inner)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if seen == "" {
		t.Fatal("no request ID in context")
	}
	if got := rec.Header().Get(requestIDHeader); got != seen {
		t.Fatalf("header %q != context %q", got, seen)
	}
}

func TestRequestIDMiddlewarePreservesValid(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := RequestIDMiddleware()(inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "client-id-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got != "client-id-123" {
		t.Fatalf("request ID = %q, want client-id-123", got)
	}
}

func TestRequestIDMiddlewareRejectsGarbage(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})
	handler := RequestIDMiddleware()(inner)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(requestIDHeader, "bad id with spaces\n")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if got := rec.Header().Get(requestIDHeader); got == "bad id with spaces\n" || got == "" {
		t.Fatalf("request ID = %q, want a fresh generated ID", got)
	}
}

func TestRateLimitMiddleware(t *testing.T) {
	logger := observability.NewLogger(observability.Config{Output: io.Discard})
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(RateLimitConfig{RequestsPerSecond: 1, Burst: 2}, logger, nil)(inner)

	statuses := make([]int, 0, 4)
	for range 4 {
		req := httptest.NewRequest(http.MethodGet, "/", nil)
		req.RemoteAddr = "10.0.0.1:1234"
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		statuses = append(statuses, rec.Code)
	}

	if statuses[0] != http.StatusOK || statuses[1] != http.StatusOK {
		t.Fatalf("burst requests rejected: %v", statuses)
	}
	if statuses[3] != http.StatusTooManyRequests {
		t.Fatalf("expected 429 after burst, got %v", statuses)
	}

	// A different client has its own bucket.
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.RemoteAddr = "10.0.0.2:1234"
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("other client got %d", rec.Code)
	}
}

func TestRateLimitDisabled(t *testing.T) {
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := RateLimitMiddleware(RateLimitConfig{}, nil, nil)(inner)

	for range 50 {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
		if rec.Code != http.StatusOK {
			t.Fatalf("disabled limiter rejected a request")
		}
	}
}

func TestLoggingMiddlewareRecoversPanic(t *testing.T) {
	logger := observability.NewLogger(observability.Config{Output: io.Discard})
	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})
	handler := LoggingMiddleware(logger)(inner)

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d, want 500", rec.Code)
	}
}

func TestChatStreamDeliversEvents(t *testing.T) {
	_, handler := newTestServer(t)
	owner, _ := registerUser(t, handler, "Alice", "alice@mnnit.ac.in")
	reader, _ := registerUser(t, handler, "Bob", "bob@mnnit.ac.in")

	book := createBook(t, handler, owner, "Optics")

	ts := httptest.NewServer(handler)
	defer ts.Close()

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/v1/chat/stream?book="+book.ID, nil)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.AddCookie(reader)
	resp, err := ts.Client().Do(req)
	if err != nil {
		t.Fatalf("open stream: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("stream status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); ct != "text/event-stream" {
		t.Fatalf("content type = %q", ct)
	}

	// The subscription exists once headers have been flushed.
	done := make(chan string, 1)
	go func() {
		scanner := bufio.NewScanner(resp.Body)
		for scanner.Scan() {
			line := scanner.Text()
			if strings.HasPrefix(line, "data: ") {
				done <- strings.TrimPrefix(line, "data: ")
				return
			}
		}
		done <- ""
	}()

	rec := doJSON(t, handler, http.MethodPost, "/api/v1/books/"+book.ID+"/conversation", map[string]string{
		"text": "ping over the stream",
	}, reader)
	if rec.Code != http.StatusCreated {
		t.Fatalf("post message: status %d", rec.Code)
	}

	select {
	case payload := <-done:
		if !strings.Contains(payload, "ping over the stream") {
			t.Fatalf("event payload = %q", payload)
		}
		if !strings.Contains(payload, book.ID) {
			t.Fatalf("event payload missing book ID: %q", payload)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("no event received on stream")
	}
}
