package main

import (
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/auth"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/storage"
)

// stores bundles the persistence backends selected at build time.
type stores struct {
	books    storage.BookStore
	kv       storage.KV
	users    auth.UserStore
	sessions auth.SessionStore
	close    func() error
}

// memoryStores is the fallback when a database cannot be reached.
func memoryStores() stores {
	return stores{
		books:    storage.NewMemoryBookStore(),
		kv:       storage.NewMemoryKV(),
		users:    auth.NewMemoryUserStore(),
		sessions: auth.NewMemorySessionStore(),
		close:    func() error { return nil },
	}
}
