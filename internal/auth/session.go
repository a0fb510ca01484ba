package auth

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"sync"
	"time"
)

// Session errors.
var (
	ErrSessionNotFound = errors.New("session not found")
	ErrSessionExpired  = errors.New("session expired")
	ErrInvalidSession  = errors.New("invalid session")
)

// DefaultSessionDuration is the default session lifetime.
const DefaultSessionDuration = 24 * time.Hour

// SessionIDLength is the number of random bytes used for session IDs.
const SessionIDLength = 32

// Session represents a logged-in user session.
type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// IsExpired returns true if the session has expired.
func (s *Session) IsExpired() bool {
	return time.Now().After(s.ExpiresAt)
}

// IsValid returns true if the session is not expired and has required fields.
func (s *Session) IsValid() bool {
	return s.ID != "" && s.UserID != "" && !s.IsExpired()
}

// NewSessionID generates a cryptographically random session ID.
func NewSessionID() (string, error) {
	b := make([]byte, SessionIDLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// NewSession creates a session for the given user with the given lifetime.
// A non-positive ttl falls back to DefaultSessionDuration.
func NewSession(userID string, ttl time.Duration) (*Session, error) {
	if ttl <= 0 {
		ttl = DefaultSessionDuration
	}
	id, err := NewSessionID()
	if err != nil {
		return nil, err
	}
	now := time.Now().UTC()
	return &Session{
		ID:        id,
		UserID:    userID,
		CreatedAt: now,
		ExpiresAt: now.Add(ttl),
	}, nil
}

// SessionStore defines the interface for session persistence.
type SessionStore interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// Get retrieves a session by its ID.
	// Returns nil, nil if not found; ErrSessionExpired if expired.
	Get(ctx context.Context, id string) (*Session, error)

	// Delete removes a session by its ID.
	Delete(ctx context.Context, id string) error

	// DeleteByUserID removes all sessions for a specific user.
	DeleteByUserID(ctx context.Context, userID string) error

	// Cleanup removes all expired sessions and returns how many were removed.
	Cleanup(ctx context.Context) (int, error)
}

// MemorySessionStore is an in-memory implementation of SessionStore.
// Thread-safe; suitable for development and single-instance deployments.
type MemorySessionStore struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	// userIndex maps user ID to session IDs for fast lookup
	userIndex map[string]map[string]struct{}
}

// NewMemorySessionStore creates a new in-memory session store.
func NewMemorySessionStore() *MemorySessionStore {
	return &MemorySessionStore{
		sessions:  make(map[string]*Session),
		userIndex: make(map[string]map[string]struct{}),
	}
}

var _ SessionStore = (*MemorySessionStore)(nil)

func (s *MemorySessionStore) Create(_ context.Context, session *Session) error {
	if session == nil || session.ID == "" || session.UserID == "" {
		return ErrInvalidSession
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.sessions[session.ID]; exists {
		return ErrInvalidSession
	}

	cpy := *session
	s.sessions[session.ID] = &cpy

	if s.userIndex[session.UserID] == nil {
		s.userIndex[session.UserID] = make(map[string]struct{})
	}
	s.userIndex[session.UserID][session.ID] = struct{}{}
	return nil
}

func (s *MemorySessionStore) Get(_ context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, nil
	}

	s.mu.RLock()
	session, exists := s.sessions[id]
	s.mu.RUnlock()

	if !exists {
		return nil, nil
	}
	if session.IsExpired() {
		return nil, ErrSessionExpired
	}
	cpy := *session
	return &cpy, nil
}

func (s *MemorySessionStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	session, exists := s.sessions[id]
	if !exists {
		return nil
	}
	delete(s.sessions, id)
	if idx := s.userIndex[session.UserID]; idx != nil {
		delete(idx, id)
		if len(idx) == 0 {
			delete(s.userIndex, session.UserID)
		}
	}
	return nil
}

func (s *MemorySessionStore) DeleteByUserID(_ context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for id := range s.userIndex[userID] {
		delete(s.sessions, id)
	}
	delete(s.userIndex, userID)
	return nil
}

func (s *MemorySessionStore) Cleanup(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.IsExpired() {
			delete(s.sessions, id)
			if idx := s.userIndex[session.UserID]; idx != nil {
				delete(idx, id)
				if len(idx) == 0 {
					delete(s.userIndex, session.UserID)
				}
			}
			removed++
		}
	}
	return removed, nil
}
