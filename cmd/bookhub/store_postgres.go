//go:build postgres && !sqlite

package main

import (
	"context"
	"time"

	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/auth"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/config"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/observability"
	pgstore "github.com/gaurav05-coder/Book-Exchange-Hub/internal/storage/postgres"
)

// selectStores returns PostgreSQL-backed stores when built with the
// 'postgres' tag. Configure with database_url or BOOKHUB_DATABASE_URL.
func selectStores(logger observability.Logger, cfg *config.Config) stores {
	if cfg.DatabaseURL == "" {
		logger.Warn("no database_url configured; using in-memory stores")
		return memoryStores()
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	st, err := pgstore.New(ctx, cfg.DatabaseURL)
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
