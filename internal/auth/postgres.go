//go:build postgres

package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresUserStore is a PostgreSQL-backed implementation of UserStore. It
// expects the users table to exist; the storage/postgres migrations create it.
type PostgresUserStore struct {
	pool *pgxpool.Pool
}

// NewPostgresUserStoreFromPool creates a user store on an existing pool.
func NewPostgresUserStoreFromPool(pool *pgxpool.Pool) *PostgresUserStore {
	return &PostgresUserStore{pool: pool}
}

var _ UserStore = (*PostgresUserStore)(nil)

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func (s *PostgresUserStore) Create(ctx context.Context, user *User) error {
	if user == nil || user.ID == "" || user.Email == "" {
		return ErrInvalidUser
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO users (id, name, email, password_hash, auth_provider, oidc_subject, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		user.ID, user.Name, strings.ToLower(user.Email), user.PasswordHash,
		user.AuthProvider, nullIfEmpty(user.OIDCSubject), user.CreatedAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return err
	}
	return nil
}

func (s *PostgresUserStore) GetByID(ctx context.Context, id string) (*User, error) {
	if id == "" {
		return nil, nil
	}
	return s.getUser(ctx, `WHERE id = $1`, id)
}

func (s *PostgresUserStore) GetByEmail(ctx context.Context, email string) (*User, error) {
	if email == "" {
		return nil, nil
	}
	return s.getUser(ctx, `WHERE lower(email) = $1`, strings.ToLower(email))
}

func (s *PostgresUserStore) getUser(ctx context.Context, where string, args ...any) (*User, error) {
	var u User
	var oidcSubject *string
	err := s.pool.QueryRow(ctx, `
		SELECT id, name, email, password_hash, auth_provider, oidc_subject, created_at
		FROM users `+where, args...).
		Scan(&u.ID, &u.Name, &u.Email, &u.PasswordHash, &u.AuthProvider, &oidcSubject, &u.CreatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if oidcSubject != nil {
		u.OIDCSubject = *oidcSubject
	}
	return &u, nil
}

func (s *PostgresUserStore) List(ctx context.Context) ([]*User, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT id, name, email, auth_provider, oidc_subject, created_at
		FROM users ORDER BY created_at`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var users []*User
	for rows.Next() {
		var u User
		var oidcSubject *string
		if err := rows.Scan(&u.ID, &u.Name, &u.Email, &u.AuthProvider, &oidcSubject, &u.CreatedAt); err != nil {
			return nil, err
		}
		if oidcSubject != nil {
			u.OIDCSubject = *oidcSubject
		}
		users = append(users, &u)
	}
	return users, rows.Err()
}

func nullIfEmpty(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// PostgresSessionStore is a PostgreSQL-backed implementation of SessionStore.
type PostgresSessionStore struct {
	pool *pgxpool.Pool
}

// NewPostgresSessionStoreFromPool creates a session store on an existing pool.
func NewPostgresSessionStoreFromPool(pool *pgxpool.Pool) *PostgresSessionStore {
	return &PostgresSessionStore{pool: pool}
}

var _ SessionStore = (*PostgresSessionStore)(nil)

func (s *PostgresSessionStore) Create(ctx context.Context, session *Session) error {
	if session == nil || session.ID == "" || session.UserID == "" {
		return ErrInvalidSession
	}
	_, err := s.pool.Exec(ctx, `
		INSERT INTO sessions (id, user_id, created_at, expires_at) VALUES ($1, $2, $3, $4)`,
		session.ID, session.UserID, session.CreatedAt.UTC(), session.ExpiresAt.UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrInvalidSession
		}
		return err
	}
	return nil
}

func (s *PostgresSessionStore) Get(ctx context.Context, id string) (*Session, error) {
	if id == "" {
		return nil, nil
	}
	var sess Session
	err := s.pool.QueryRow(ctx, `
		SELECT id, user_id, created_at, expires_at FROM sessions WHERE id = $1`, id).
		Scan(&sess.ID, &sess.UserID, &sess.CreatedAt, &sess.ExpiresAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if sess.IsExpired() {
		return nil, ErrSessionExpired
	}
	return &sess, nil
}

func (s *PostgresSessionStore) Delete(ctx context.Context, id string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE id = $1`, id)
	return err
}

func (s *PostgresSessionStore) DeleteByUserID(ctx context.Context, userID string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	return err
}

func (s *PostgresSessionStore) Cleanup(ctx context.Context) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM sessions WHERE expires_at < now()`)
	if err != nil {
		return 0, err
	}
	return int(tag.RowsAffected()), nil
}
