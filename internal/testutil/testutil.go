// Package testutil wires a fully assembled server on in-memory stores for
// tests.
package testutil

import (
	"io"
	"net/http"
	"testing"

	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/auth"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/chat"
	httpapi "github.com/gaurav05-coder/Book-Exchange-Hub/internal/http"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/observability"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/storage"
)

// Env is an assembled application with all its stores reachable for
// seeding and inspection.
type Env struct {
	Handler  http.Handler
	Server   *httpapi.Server
	Books    *storage.MemoryBookStore
	Users    *auth.MemoryUserStore
	Sessions *auth.MemorySessionStore
	KV       *storage.MemoryKV
	Chat     *chat.Store
	Logger   observability.Logger
}

// NewEnv builds the full middleware chain and API on in-memory stores,
// matching how the binary assembles them.
func NewEnv(t *testing.T) *Env {
	t.Helper()

	logger := Logger()
	books := storage.NewMemoryBookStore()
	users := auth.NewMemoryUserStore()
	sessions := auth.NewMemorySessionStore()
	kv := storage.NewMemoryKV()
	chatStore := chat.NewStore(kv, chat.NewBus(), logger, nil)

	mux := http.NewServeMux()
	srv := httpapi.NewServer(mux, httpapi.Options{
		Logger:      logger,
		Books:       books,
		Users:       users,
		Sessions:    sessions,
		Chat:        chatStore,
		EmailDomain: "mnnit.ac.in",
	})
	srv.RegisterRoutes()

	handler := httpapi.ApplyMiddlewares(mux,
		httpapi.RequestIDMiddleware(),
		httpapi.SessionMiddleware(sessions, users),
	)

	return &Env{
		Handler:  handler,
		Server:   srv,
		Books:    books,
		Users:    users,
		Sessions: sessions,
		KV:       kv,
		Chat:     chatStore,
		Logger:   logger,
	}
}

// Logger returns a structured logger that discards all output.
func Logger() observability.Logger {
	return observability.NewLogger(observability.Config{Output: io.Discard})
}
