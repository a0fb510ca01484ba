package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// KV is a durable string key-value store with prefix scans. The conversation
// subsystem persists whole conversation records through this interface; a
// database-backed implementation gives records a lifetime beyond the process.
type KV interface {
	// Get returns the value for key. The second return is false if absent.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set writes value under key, overwriting any prior value.
	Set(ctx context.Context, key, value string) error

	// Delete removes key. Deleting an absent key is not an error.
	Delete(ctx context.Context, key string) error

	// Keys returns all stored keys with the given prefix, sorted.
	Keys(ctx context.Context, prefix string) ([]string, error)
}

// MemoryKV is an in-memory implementation of KV.
// Thread-safe; suitable for development and testing.
type MemoryKV struct {
	mu   sync.RWMutex
	data map[string]string
}

// NewMemoryKV creates a new in-memory key-value store.
func NewMemoryKV() *MemoryKV {
	return &MemoryKV{data: make(map[string]string)}
}

var _ KV = (*MemoryKV)(nil)

func (m *MemoryKV) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	v, ok := m.data[key]
	return v, ok, nil
}

func (m *MemoryKV) Set(_ context.Context, key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *MemoryKV) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *MemoryKV) Keys(_ context.Context, prefix string) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	keys := make([]string, 0, len(m.data))
	for k := range m.data {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)
	return keys, nil
}
