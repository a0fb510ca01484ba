//go:build !sqlite && !postgres

package main

import (
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/auth"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/config"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/observability"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/storage"
)

// selectStores returns in-memory stores when built without a database tag.
func selectStores(logger observability.Logger, cfg *config.Config) stores {
	if cfg.DatabaseURL != "" {
		logger.Warn("database_url set, but binary not built with -tags sqlite or -tags postgres; using in-memory stores")
	}
	logger.Info("using in-memory stores")
	return stores{
		books:    storage.NewMemoryBookStore(),
		kv:       storage.NewMemoryKV(),
		users:    auth.NewMemoryUserStore(),
		sessions: auth.NewMemorySessionStore(),
		close:    func() error { return nil },
	}
}
