//go:build sqlite && !postgres

package main

import (
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/auth"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/config"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/observability"
	sqlitestore "github.com/gaurav05-coder/Book-Exchange-Hub/internal/storage/sqlite"
)

// selectStores returns SQLite-backed stores when built with the 'sqlite' tag.
// Configure with database_url (e.g., file:bookhub.db?cache=shared).
func selectStores(logger observability.Logger, cfg *config.Config) stores {
	dsn := cfg.DatabaseURL
	if dsn == "" {
		dsn = "file:bookhub.db?cache=shared"
	}
	st, err := sqlitestore.New(dsn)
	if err != nil {
		logger.Error("sqlite init failed, falling back to in-memory stores", "error", err)
		return memoryStores()
	}
	logger.Info("using sqlite stores", "dsn", dsn)
	return stores{
		books:    st,
		kv:       st,
		users:    auth.NewSQLiteUserStoreFromDB(st.DB()),
		sessions: auth.NewSQLiteSessionStoreFromDB(st.DB()),
		close:    st.Close,
	}
}
