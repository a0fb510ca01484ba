//go:build sqlite

package auth

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"
)

// SQLiteUserStore is a SQLite-backed implementation of UserStore. It expects
// the users table to exist; the storage/sqlite migrations create it.
type SQLiteUserStore struct {
	db *sql.DB
}

// NewSQLiteUserStoreFromDB creates a user store on an already-open database.
func NewSQLiteUserStoreFromDB(db *sql.DB) *SQLiteUserStore {
	return &SQLiteUserStore{db: db}
}

var _ UserStore = (*SQLiteUserStore)(nil)

func (s *SQLiteUserStore) Create(ctx context.Context, user *User) error {
	if user == nil || user.ID == "" || user.Email == "" {
		return ErrInvalidUser
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, auth_provider, oidc_subject, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.Name, strings.ToLower(user.Email), user.PasswordHash,
		user.AuthProvider, user.OIDCSubject, user.CreatedAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "PRIMARY") {
			return ErrUserExists
		}
		return err
	}
	return nil
}

func (s *SQLiteUserStore) GetByID(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, nil
	}
	return s.getUser(ctx, `WHERE id = ?`, id)
}

func (s *SQLiteUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	if email == "" {
		return nil, nil
	}
	return s.getUser(ctx, `WHERE email = ?`, strings.ToLower(email))
}

func (s *SQLiteUserStore) getUser(ctx context.Context, where string, args ...any) (*User, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT id, name, email, password_hash, auth_provider, oidc_subject, created_at
		FROM users `+where, args...)
	u, err := scanUser(row.Scan)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return u, nil
}

func (s *SQLiteUserStore) List(ctx context.Context) ([]*User, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, name, email, password_hash, auth_provider, oidc_subject, created_at
		FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		u, err := scanUser(rows.Scan)
		if err != nil {
			return nil, err
		}
		u.PasswordHash = nil
		users = append(users, u)
	}
	return users, rows.Err()
}

func scanUser(scan func(...any) error) (*User, error) {
	var u User
	var hash []byte
	var oidcSubject sql.NullString
	var created string
	if err := scan(&u.ID, &u.Name, &u.Email, &hash, &u.AuthProvider, &oidcSubject, &created); err != nil {
		return nil, err
	}
	u.PasswordHash = hash
	u.OIDCSubject = oidcSubject.String
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		u.CreatedAt = t
	}
	return &u, nil
}

// SQLiteSessionStore is a SQLite-backed implementation of SessionStore.
type SQLiteSessionStore struct {
	db *sql.DB
}

// NewSQLiteSessionStoreFromDB creates a session store on an already-open database.
func NewSQLiteSessionStoreFromDB(db *sql.DB) *SQLiteSessionStore {
	return &SQLiteSessionStore{db: db}
}

var _ SessionStore = (*SQLiteSessionStore)(nil)

func (s *SQLiteSessionStore) Create(ctx context.Context, session *Session) error {
	if session == nil || session.ID == "" || session.UserID == "" {
		return ErrInvalidSession
	}
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES (?, ?, ?, ?)`,
		session.ID, session.UserID,
		session.CreatedAt.UTC().Format(time.RFC3339Nano),
		session.ExpiresAt.UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		if strings.Contains(err.Error(), "UNIQUE") || strings.Contains(err.Error(), "PRIMARY") {
			return ErrInvalidSession
		}
		return err
	}
	return nil
}

func (s *SQLiteSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, nil
	}
	var sess Session
	var created, expires string
	err := s.db.QueryRowContext(ctx, `
		SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = ?`, id).
		Scan(&sess.ID, &sess.UserID, &created, &expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if t, err := time.Parse(time.RFC3339Nano, created); err == nil {
		sess.CreatedAt = t
	}
	if t, err := time.Parse(time.RFC3339Nano, expires); err == nil {
		sess.ExpiresAt = t
	}
	if sess.IsExpired() {
		return nil, ErrSessionExpired
	}
	return &sess, nil
}

func (s *SQLiteSessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE id = ?`, id)
	return err
}

func (s *SQLiteSessionStore) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	return err
}

func (s *SQLiteSessionStore) Cleanup(ctx context.Context) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE expires_at < ?`,
		time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return 0, err
	}
	n, err := res.RowsAffected()
	return int(n), err
}
