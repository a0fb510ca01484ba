//go:build postgres

// Package postgres provides a PostgreSQL-backed storage implementation
// using pgx connection pooling.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/domain"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/storage"
)

// Store implements storage.BookStore and storage.KV backed by PostgreSQL.
type Store struct {
	pool *pgxpool.Pool
}

var (
	_ storage.BookStore = (*Store)(nil)
	_ storage.KV        = (*Store)(nil)
)

// New connects to the database at dsn and applies migrations.
func New(ctx context.Context, dsn string) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse dsn: %w", err)
	}
	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("connect: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping: %w", err)
	}
	if err := runMigrations(ctx, pool); err != nil {
		pool.Close()
		return nil, err
	}
	return &Store{pool: pool}, nil
}

// Pool returns the underlying connection pool for shared access
// (user and session stores).
func (s *Store) Pool() *pgxpool.Pool {
	return s.pool
}

// Close closes the connection pool.
func (s *Store) Close() {
	s.pool.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.pool.Ping(ctx)
}

const bookColumns = `id, title, subject, condition, exchange_type, image, contact_info, owner_id, created_at`

func (s *Store) ListBooks(ctx context.Context, f storage.BookFilter) ([]domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books`
	var conds []string
	var args []any
	if f.Subject != "" {
		args = append(args, f.Subject)
		conds = append(conds, fmt.Sprintf(`subject = $%d`, len(args)))
	}
	if f.Title != "" {
		args = append(args, "%"+escapeLike(f.Title)+"%")
		conds = append(conds, fmt.Sprintf(`title ILIKE $%d`, len(args)))
	}
	if f.OwnerID != "" {
		args = append(args, f.OwnerID)
		conds = append(conds, fmt.Sprintf(`owner_id = $%d`, len(args)))
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Book
	for rows.Next() {
		var b domain.Book
		if err := rows.Scan(&b.ID, &b.Title, &b.Subject, &b.Condition, &b.ExchangeType,
			&b.Image, &b.ContactInfo, &b.OwnerID, &b.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, rows.Err()
}

func (s *Store) CreateBook(ctx context.Context, ownerID string, in domain.CreateBook) (domain.Book, error) {
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
	_, err := s.pool.Exec(ctx, `
		INSERT INTO books (`+bookColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		b.ID, b.Title, b.Subject, b.Condition, b.ExchangeType, b.Image, b.ContactInfo, b.OwnerID, b.CreatedAt,
	)
	if err != nil {
		return domain.Book{}, storage.WrapIfConflict(err)
	}
	return b, nil
}

func (s *Store) GetBook(ctx context.Context, id string) (domain.Book, error) {
	var b domain.Book
	err := s.pool.QueryRow(ctx, `SELECT `+bookColumns+` FROM books WHERE id = $1`, id).
		Scan(&b.ID, &b.Title, &b.Subject, &b.Condition, &b.ExchangeType,
			&b.Image, &b.ContactInfo, &b.OwnerID, &b.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return domain.Book{}, storage.ErrNotFound
		}
		return domain.Book{}, err
	}
	return b, nil
}

func (s *Store) UpdateBook(ctx context.Context, id string, in domain.UpdateBook) (domain.Book, error) {
	b, err := s.GetBook(ctx, id)
	if err != nil {
		return domain.Book{}, err
	}
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
	_, err = s.pool.Exec(ctx, `
		UPDATE books SET title=$1, subject=$2, condition=$3, exchange_type=$4, image=$5, contact_info=$6
		WHERE id=$7`,
		b.Title, b.Subject, b.Condition, b.ExchangeType, b.Image, b.ContactInfo, id,
	)
	if err != nil {
		return domain.Book{}, err
	}
	return b, nil
}

func (s *Store) DeleteBook(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM books WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Get implements storage.KV.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.pool.QueryRow(ctx, `SELECT value FROM kv_records WHERE key = $1`, key).Scan(&value)
	if errors.Is(err, pgx.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set implements storage.KV.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO kv_records (key, value, updated_at) VALUES ($1, $2, now())
		ON CONFLICT (key) DO UPDATE SET value = EXCLUDED.value, updated_at = now()`,
		key, value,
	)
	return err
}

// Delete implements storage.KV.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.pool.Exec(ctx, `DELETE FROM kv_records WHERE key = $1`, key)
	return err
}

// Keys implements storage.KV.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.pool.Query(ctx, `
		SELECT key FROM kv_records WHERE key LIKE $1 ESCAPE '\' ORDER BY key`,
		escapeLike(prefix)+"%",
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

// migrations are applied in order; each entry runs at most once.
var migrations = []string{
	`CREATE TABLE IF NOT EXISTS books (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		subject TEXT NOT NULL,
		condition TEXT NOT NULL,
		exchange_type TEXT NOT NULL,
		image TEXT NOT NULL,
		contact_info TEXT NOT NULL,
		owner_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE INDEX IF NOT EXISTS idx_books_subject ON books(subject);
	CREATE INDEX IF NOT EXISTS idx_books_owner ON books(owner_id);`,

	`CREATE TABLE IF NOT EXISTS kv_records (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);`,

	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL,
		password_hash BYTEA,
		auth_provider TEXT NOT NULL DEFAULT 'local',
		oidc_subject TEXT,
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	CREATE UNIQUE INDEX IF NOT EXISTS idx_users_email ON users (lower(email));`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL,
		expires_at TIMESTAMPTZ NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);`,
}

func runMigrations(ctx context.Context, pool *pgxpool.Pool) error {
	if _, err := pool.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := pool.QueryRow(ctx, `SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		tx, err := pool.Begin(ctx)
		if err != nil {
			return err
		}
		if _, err := tx.Exec(ctx, migrations[i]); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, i+1); err != nil {
			_ = tx.Rollback(ctx)
			return fmt.Errorf("record migration %d: %w", i+1, err)
		}
		if err := tx.Commit(ctx); err != nil {
			return err
		}
	}
	return nil
}
