package tokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	_ "github.com/mattn/go-sqlite3"
)

const (
	sqliteSchema = `CREATE TABLE IF NOT EXISTS tokens (
        key TEXT PRIMARY KEY,
        value TEXT NOT NULL,
        updated_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
)`
	sqliteSelect = `SELECT value FROM tokens WHERE key = ?`
	sqliteUpsert = `INSERT INTO tokens (key, value, updated_at) VALUES (?, ?, CURRENT_TIMESTAMP)
        ON CONFLICT (key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`
	sqliteDelete      = `DELETE FROM tokens WHERE key = ?`
	sqliteDeleteBoth  = `DELETE FROM tokens WHERE key IN (?, ?)`
	sqliteBusyTimeout = "?_busy_timeout=5000"
)

// SQLiteStore persists tokens in a local SQLite database so they survive restarts.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore wraps an existing database handle. The schema is not created.
func NewSQLiteStore(db *sql.DB) *SQLiteStore {
	return &SQLiteStore{db: db}
}

// OpenSQLite opens (creating when needed) the database file at path and ensures the schema.
func OpenSQLite(ctx context.Context, path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, errors.New("sqlite token store: empty path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("create token directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite3", path+sqliteBusyTimeout)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	db.SetMaxOpenConns(1)

	store := NewSQLiteStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return store, nil
}

// EnsureSchema creates the tokens table when it does not exist.
func (s *SQLiteStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("ensure tokens table: %w", err)
	}
	return nil
}

// Get returns the value stored for key.
func (s *SQLiteStore) Get(ctx context.Context, key Key) (string, error) {
	var value string
	err := s.db.QueryRowContext(ctx, sqliteSelect, string(key)).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("select token: %w", err)
	}
	return value, nil
}

// Set overwrites the value stored for key.
func (s *SQLiteStore) Set(ctx context.Context, key Key, value string) error {
	if err := ValidateKey(key); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, sqliteUpsert, string(key), value); err != nil {
		return fmt.Errorf("upsert token: %w", err)
	}
	return nil
}

// Remove deletes the value stored for key.
func (s *SQLiteStore) Remove(ctx context.Context, key Key) error {
	if _, err := s.db.ExecContext(ctx, sqliteDelete, string(key)); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// SavePair writes both credentials in one transaction.
func (s *SQLiteStore) SavePair(ctx context.Context, pair Pair) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin token transaction: %w", err)
	}

	if _, err := tx.ExecContext(ctx, sqliteUpsert, string(AccessToken), pair.AccessToken); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert access token: %w", err)
	}
	if _, err := tx.ExecContext(ctx, sqliteUpsert, string(RefreshToken), pair.RefreshToken); err != nil {
		_ = tx.Rollback()
		return fmt.Errorf("upsert refresh token: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit token transaction: %w", err)
	}
	return nil
}

// Clear removes both credentials in a single statement.
func (s *SQLiteStore) Clear(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteDeleteBoth, string(AccessToken), string(RefreshToken)); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
