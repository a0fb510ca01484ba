//go:build sqlite && postgres

package main

import (
	"context"
	"strings"
	"time"

	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/auth"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/config"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/observability"
	pgstore "github.com/gaurav05-coder/Book-Exchange-Hub/internal/storage/postgres"
	sqlitestore "github.com/gaurav05-coder/Book-Exchange-Hub/internal/storage/sqlite"
)

// selectStores picks a backend by DSN scheme when built with both database
// tags: postgres:// selects PostgreSQL, anything else SQLite.
func selectStores(logger observability.Logger, cfg *config.Config) stores {
	dsn := cfg.DatabaseURL

	if strings.HasPrefix(dsn, "postgres://") || strings.HasPrefix(dsn, "postgresql://") {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		st, err := pgstore.New(ctx, dsn)
		if err != nil {
			logger.Error("postgres init failed, falling back to in-memory stores", "error", err)
			return memoryStores()
		}
		logger.Info("using postgres stores")
		return stores{
			books:    st,
			kv:       st,
			users:    auth.NewPostgresUserStoreFromPool(st.Pool()),
			sessions: auth.NewPostgresSessionStoreFromPool(st.Pool()),
			close: func() error {
				st.Close()
				return nil
			},
		}
	}

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
