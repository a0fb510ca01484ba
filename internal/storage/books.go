// Package storage provides storage interfaces and implementations for Book Exchange Hub.
package storage

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/domain"
)

// BookFilter narrows a listing query. Zero values match everything.
type BookFilter struct {
	// Subject filters by exact subject.
	Subject string
	// Title filters by case-insensitive substring match.
	Title string
	// OwnerID filters by the listing owner.
	OwnerID string
}

// BookStore provides storage operations for book listings.
type BookStore interface {
	// ListBooks returns listings matching the filter, newest first.
	ListBooks(ctx context.Context, f BookFilter) ([]domain.Book, error)

	// CreateBook persists a new listing and returns it with ID and CreatedAt set.
	CreateBook(ctx context.Context, ownerID string, in domain.CreateBook) (domain.Book, error)

	// GetBook returns a listing by ID. Returns ErrNotFound if absent.
	GetBook(ctx context.Context, id string) (domain.Book, error)

	// UpdateBook applies the non-nil fields of in to an existing listing.
	UpdateBook(ctx context.Context, id string, in domain.UpdateBook) (domain.Book, error)

	// DeleteBook removes a listing by ID. Returns ErrNotFound if absent.
	DeleteBook(ctx context.Context, id string) error
}

// MemoryBookStore is an in-memory implementation of BookStore.
// Thread-safe; suitable for development and testing.
type MemoryBookStore struct {
	mu    sync.RWMutex
	books map[string]domain.Book
}

// NewMemoryBookStore creates a new in-memory book store.
func NewMemoryBookStore() *MemoryBookStore {
	return &MemoryBookStore{books: make(map[string]domain.Book)}
}

var _ BookStore = (*MemoryBookStore)(nil)

func (m *MemoryBookStore) ListBooks(_ context.Context, f BookFilter) ([]domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]domain.Book, 0, len(m.books))
	for _, b := range m.books {
		if matchBook(b, f) {
			result = append(result, b)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result, nil
}

func (m *MemoryBookStore) CreateBook(_ context.Context, ownerID string, in domain.CreateBook) (domain.Book, error) {
	b := domain.Book{
		ID:           uuid.NewString(),
		Title:        strings.TrimSpace(in.Title),
		Subject:      in.Subject,
		Condition:    in.Condition,
		ExchangeType: in.ExchangeType,
		Image:        in.Image,
		ContactInfo:  in.ContactInfo,
		OwnerID:      ownerID,
		CreatedAt:    time.Now().UTC(),
	}

	m.mu.Lock()
	m.books[b.ID] = b
	m.mu.Unlock()
	return b, nil
}

func (m *MemoryBookStore) GetBook(_ context.Context, id string) (domain.Book, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	b, ok := m.books[id]
	if !ok {
		return domain.Book{}, ErrNotFound
	}
	return b, nil
}

func (m *MemoryBookStore) UpdateBook(_ context.Context, id string, in domain.UpdateBook) (domain.Book, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	b, ok := m.books[id]
	if !ok {
		return domain.Book{}, ErrNotFound
	}
	applyBookUpdate(&b, in)
	m.books[id] = b
	return b, nil
}

func (m *MemoryBookStore) DeleteBook(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.books[id]; !ok {
		return ErrNotFound
	}
	delete(m.books, id)
	return nil
}

func matchBook(b domain.Book, f BookFilter) bool {
	if f.Subject != "" && b.Subject != f.Subject {
		return false
	}
	if f.Title != "" && !strings.Contains(strings.ToLower(b.Title), strings.ToLower(f.Title)) {
		return false
	}
	if f.OwnerID != "" && b.OwnerID != f.OwnerID {
		return false
	}
	return true
}

func applyBookUpdate(b *domain.Book, in domain.UpdateBook) {
	if in.Title != nil {
		b.Title = strings.TrimSpace(*in.Title)
	}
	if in.Subject != nil {
		b.Subject = *in.Subject
	}
	if in.Condition != nil {
		b.Condition = *in.Condition
	}
	if in.ExchangeType != nil {
		b.ExchangeType = *in.ExchangeType
	}
	if in.Image != nil {
		b.Image = *in.Image
	}
	if in.ContactInfo != nil {
		b.ContactInfo = *in.ContactInfo
	}
}
