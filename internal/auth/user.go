// Package auth provides authentication for Book Exchange Hub.
package auth

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"time"
)

// User errors.
var (
	ErrUserNotFound    = errors.New("user not found")
	ErrUserExists      = errors.New("user already exists")
	ErrInvalidPassword = errors.New("invalid password")
	ErrInvalidUser     = errors.New("invalid user")
)

// User represents a student account.
type User struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash []byte    `json:"-"` // bcrypt hash, never serialized
	AuthProvider string    `json:"auth_provider,omitempty"` // "local" or "oidc"
	OIDCSubject  string    `json:"oidc_subject,omitempty"`  // IdP "sub" claim
	CreatedAt    time.Time `json:"created_at"`
}

// userIDLength is the number of random bytes in a user ID.
const userIDLength = 12

// NewUserID generates a random hex user ID. User IDs are embedded in
// conversation keys where the participant pair is joined with '-', so they
// must not contain that character; hex encoding guarantees it.
func NewUserID() (string, error) {
	b := make([]byte, userIDLength)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// copyUser creates a deep copy of a User.
func copyUser(u *User) *User {
	if u == nil {
		return nil
	}
	cpy := &User{
		ID:           u.ID,
		Name:         u.Name,
		Email:        u.Email,
		AuthProvider: u.AuthProvider,
		OIDCSubject:  u.OIDCSubject,
		CreatedAt:    u.CreatedAt,
	}
	if u.PasswordHash != nil {
		cpy.PasswordHash = make([]byte, len(u.PasswordHash))
		copy(cpy.PasswordHash, u.PasswordHash)
	}
	return cpy
}
