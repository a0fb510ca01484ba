//go:build sqlite

// Package sqlite provides a SQLite-backed storage implementation.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // CGO-less SQLite driver

	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/domain"
	"github.com/gaurav05-coder/Book-Exchange-Hub/internal/storage"
)

// Store implements storage.BookStore and storage.KV backed by SQLite.
type Store struct {
	db *sql.DB
}

var (
	_ storage.BookStore = (*Store)(nil)
	_ storage.KV        = (*Store)(nil)
)

// New opens (or creates) the database at dsn and applies migrations.
func New(dsn string) (*Store, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, err
	}
	if _, err := db.Exec(`PRAGMA journal_mode=WAL; PRAGMA busy_timeout=5000; PRAGMA foreign_keys=ON;`); err != nil {
		_ = db.Close()
		return nil, err
	}
	if err := runMigrations(db); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Store{db: db}, nil
}

// DB returns the underlying database handle for shared access
// (user and session stores).
func (s *Store) DB() *sql.DB {
	return s.db
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Ping checks database connectivity.
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

const bookColumns = `id, title, subject, condition, exchange_type, image, contact_info, owner_id, created_at`

func scanBook(row interface{ Scan(...any) error }) (domain.Book, error) {
	var b domain.Book
	var ts string
	if err := row.Scan(&b.ID, &b.Title, &b.Subject, &b.Condition, &b.ExchangeType, &b.Image, &b.ContactInfo, &b.OwnerID, &ts); err != nil {
		return domain.Book{}, err
	}
	if t, err := time.Parse(time.RFC3339Nano, ts); err == nil {
		b.CreatedAt = t
	}
	return b, nil
}

func (s *Store) ListBooks(ctx context.Context, f storage.BookFilter) ([]domain.Book, error) {
	query := `SELECT ` + bookColumns + ` FROM books`
	var conds []string
	var args []any
	if f.Subject != "" {
		conds = append(conds, `subject = ?`)
		args = append(args, f.Subject)
	}
	if f.Title != "" {
		conds = append(conds, `title LIKE ? ESCAPE '\'`)
		args = append(args, "%"+escapeLike(f.Title)+"%")
	}
	if f.OwnerID != "" {
		conds = append(conds, `owner_id = ?`)
		args = append(args, f.OwnerID)
	}
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, ` AND `)
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Book
	for rows.Next() {
		b, err := scanBook(rows)
		if err != nil {
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
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO books (`+bookColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		b.ID, b.Title, b.Subject, b.Condition, b.ExchangeType, b.Image, b.ContactInfo, b.OwnerID,
		b.CreatedAt.Format(time.RFC3339Nano),
	)
	if err != nil {
		return domain.Book{}, storage.WrapIfConflict(err)
	}
	return b, nil
}

func (s *Store) GetBook(ctx context.Context, id string) (domain.Book, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+bookColumns+` FROM books WHERE id = ?`, id)
	b, err := scanBook(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
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
	_, err = s.db.ExecContext(ctx, `
		UPDATE books SET title=?, subject=?, condition=?, exchange_type=?, image=?, contact_info=? WHERE id=?`,
		b.Title, b.Subject, b.Condition, b.ExchangeType, b.Image, b.ContactInfo, id,
	)
	if err != nil {
		return domain.Book{}, err
	}
	return b, nil
}

func (s *Store) DeleteBook(ctx context.Context, id string) error {
	res, err := s.db.ExecContext(ctx, `DELETE FROM books WHERE id = ?`, id)
	if err != nil {
		return err
	}
	n, _ := res.RowsAffected()
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Get implements storage.KV.
func (s *Store) Get(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM kv_records WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

// Set implements storage.KV.
func (s *Store) Set(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO kv_records (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value=excluded.value, updated_at=excluded.updated_at`,
		key, value, time.Now().UTC().Format(time.RFC3339Nano),
	)
	return err
}

// Delete implements storage.KV.
func (s *Store) Delete(ctx context.Context, key string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM kv_records WHERE key = ?`, key)
	return err
}

// Keys implements storage.KV.
func (s *Store) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT key FROM kv_records WHERE key LIKE ? ESCAPE '\' ORDER BY key`,
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
		created_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_books_subject ON books(subject);
	CREATE INDEX IF NOT EXISTS idx_books_owner ON books(owner_id);`,

	`CREATE TABLE IF NOT EXISTS kv_records (
		key TEXT PRIMARY KEY,
		value TEXT NOT NULL,
		updated_at TEXT NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS users (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		email TEXT NOT NULL UNIQUE COLLATE NOCASE,
		password_hash BLOB,
		auth_provider TEXT NOT NULL DEFAULT 'local',
		oidc_subject TEXT,
		created_at TEXT NOT NULL
	);`,

	`CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		user_id TEXT NOT NULL,
		created_at TEXT NOT NULL,
		expires_at TEXT NOT NULL
	);
	CREATE INDEX IF NOT EXISTS idx_sessions_user ON sessions(user_id);`,
}

func runMigrations(db *sql.DB) error {
	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at TEXT NOT NULL
	)`); err != nil {
		return fmt.Errorf("create schema_migrations: %w", err)
	}

	var current int
	if err := db.QueryRow(`SELECT COALESCE(MAX(version), 0) FROM schema_migrations`).Scan(&current); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for i := current; i < len(migrations); i++ {
		tx, err := db.Begin()
		if err != nil {
			return err
		}
		if _, err := tx.Exec(migrations[i]); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("apply migration %d: %w", i+1, err)
		}
		if _, err := tx.Exec(`INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)`,
			i+1, time.Now().UTC().Format(time.RFC3339)); err != nil {
			_ = tx.Rollback()
			return fmt.Errorf("record migration %d: %w", i+1, err)
		}
		if err := tx.Commit(); err != nil {
			return err
		}
	}
	return nil
}
