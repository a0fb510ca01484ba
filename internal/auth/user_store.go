package auth

import (
	"context"
	"strings"
	"sync"
)

// UserStore defines the interface for user persistence.
type UserStore interface {
	// Create stores a new user.
	Create(ctx context.Context, user *User) error

	// GetByID retrieves a user by ID.
	// Returns nil, nil if not found.
	GetByID(ctx context.Context, id string) (*User, error)

	// GetByEmail retrieves a user by email (case-insensitive).
	// Returns nil, nil if not found.
	GetByEmail(ctx context.Context, email string) (*User, error)

	// List returns all users, without password hashes.
	List(ctx context.Context) ([]*User, error)
}

// MemoryUserStore is an in-memory implementation of UserStore.
// Thread-safe; suitable for development and testing.
type MemoryUserStore struct {
	mu         sync.RWMutex
	users      map[string]*User  // keyed by ID
	emailIndex map[string]string // lowercase email -> ID
}

// NewMemoryUserStore creates a new in-memory user store.
func NewMemoryUserStore() *MemoryUserStore {
	return &MemoryUserStore{
		users:      make(map[string]*User),
		emailIndex: make(map[string]string),
	}
}

var _ UserStore = (*MemoryUserStore)(nil)

func (s *MemoryUserStore) Create(_ context.Context, user *User) error {
	if user == nil || user.ID == "" || user.Email == "" {
		return ErrInvalidUser
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	email := strings.ToLower(user.Email)
	if _, exists := s.users[user.ID]; exists {
		return ErrUserExists
	}
	if _, exists := s.emailIndex[email]; exists {
		return ErrUserExists
	}

	s.users[user.ID] = copyUser(user)
	s.emailIndex[email] = user.ID
	return nil
}

func (s *MemoryUserStore) GetByID(_ context.Context, id string) (*User, error) {
	if id == "" {
		return nil, nil
	}

	s.mu.RLock()
	user, exists := s.users[id]
	s.mu.RUnlock()

	if !exists {
		return nil, nil
	}
	return copyUser(user), nil
}

func (s *MemoryUserStore) GetByEmail(_ context.Context, email string) (*User, error) {
	if email == "" {
		return nil, nil
	}

	s.mu.RLock()
	id, exists := s.emailIndex[strings.ToLower(email)]
	if !exists {
		s.mu.RUnlock()
		return nil, nil
	}
	user := s.users[id]
	s.mu.RUnlock()

	return copyUser(user), nil
}

func (s *MemoryUserStore) List(_ context.Context) ([]*User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*User, 0, len(s.users))
	for _, u := range s.users {
		cpy := copyUser(u)
		cpy.PasswordHash = nil
		result = append(result, cpy)
	}
	return result, nil
}
