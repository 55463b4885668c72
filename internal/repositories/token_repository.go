package repositories

import (
	"context"
	"errors"
	"fmt"

	crdbpgx "github.com/cockroachdb/cockroach-go/v2/crdb/crdbpgxv5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/codenestai/client/internal/db"
	"github.com/codenestai/client/internal/tokens"
)

// undefinedTable is the SQLSTATE PostgreSQL and CockroachDB report for a missing relation.
const undefinedTable = "42P01"

// ErrSchemaMissing indicates the client_tokens table has not been created yet.
var ErrSchemaMissing = errors.New("token store schema is missing; run `codenest tokens migrate`")

// PostgresTokenStore persists the credential pair in PostgreSQL (or CockroachDB), keyed by
// profile so several client profiles can share one database.
type PostgresTokenStore struct {
	pool    db.Pool
	profile string
}

// NewPostgresTokenStore constructs a token store backed by PostgreSQL.
func NewPostgresTokenStore(pool db.Pool, profile string) *PostgresTokenStore {
	if profile == "" {
		profile = "default"
	}
	return &PostgresTokenStore{pool: pool, profile: profile}
}

// CheckSchema verifies the client_tokens table exists, returning ErrSchemaMissing when the
// database has not been migrated.
func (s *PostgresTokenStore) CheckSchema(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `SELECT 1 FROM client_tokens LIMIT 1`); err != nil {
		if isUndefinedTable(err) {
			return ErrSchemaMissing
		}
		return fmt.Errorf("check token schema: %w", err)
	}
	return nil
}

func isUndefinedTable(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == undefinedTable
}

// Get loads the value stored for key.
func (s *PostgresTokenStore) Get(ctx context.Context, key tokens.Key) (string, error) {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return "", fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	row := conn.QueryRow(ctx, `
        SELECT value
        FROM client_tokens
        WHERE profile = $1 AND token_key = $2
    `, s.profile, string(key))

	var value string
	if err := row.Scan(&value); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", tokens.ErrNotFound
		}
		return "", fmt.Errorf("select token: %w", err)
	}
	return value, nil
}

// Set stores or replaces the value for key.
func (s *PostgresTokenStore) Set(ctx context.Context, key tokens.Key, value string) error {
	if err := tokens.ValidateKey(key); err != nil {
		return err
	}

	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if err := upsertToken(ctx, conn, s.profile, key, value); err != nil {
		return err
	}
	return nil
}

// Remove deletes the value for key. Removing an absent key is not an error.
func (s *PostgresTokenStore) Remove(ctx context.Context, key tokens.Key) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        DELETE FROM client_tokens
        WHERE profile = $1 AND token_key = $2
    `, s.profile, string(key)); err != nil {
		return fmt.Errorf("delete token: %w", err)
	}
	return nil
}

// SavePair writes both credentials in one retried transaction.
func (s *PostgresTokenStore) SavePair(ctx context.Context, pair tokens.Pair) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	err = crdbpgx.ExecuteTx(ctx, conn, pgx.TxOptions{}, func(tx pgx.Tx) error {
		if err := upsertToken(ctx, tx, s.profile, tokens.AccessToken, pair.AccessToken); err != nil {
			return err
		}
		return upsertToken(ctx, tx, s.profile, tokens.RefreshToken, pair.RefreshToken)
	})
	if err != nil {
		return fmt.Errorf("save token pair: %w", err)
	}
	return nil
}

// Clear deletes both credentials for the profile.
func (s *PostgresTokenStore) Clear(ctx context.Context) error {
	conn, err := s.pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `
        DELETE FROM client_tokens
        WHERE profile = $1
    `, s.profile); err != nil {
		return fmt.Errorf("clear tokens: %w", err)
	}
	return nil
}

type execer interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

func upsertToken(ctx context.Context, q execer, profile string, key tokens.Key, value string) error {
	_, err := q.Exec(ctx, `
        INSERT INTO client_tokens (profile, token_key, value, updated_at)
        VALUES ($1, $2, $3, NOW())
        ON CONFLICT (profile, token_key)
        DO UPDATE SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
    `, profile, string(key), value)
	if err != nil {
		return fmt.Errorf("upsert %s: %w", key, err)
	}
	return nil
}

var _ tokens.Store = (*PostgresTokenStore)(nil)
