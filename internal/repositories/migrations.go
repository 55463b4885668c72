package repositories

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"math"
	"os"
	"path"
	"sort"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/codenestai/client/internal/db"
)

//go:embed migrations/*.sql
var embeddedMigrations embed.FS

const (
	migrationMaxRetries  = 3
	migrationBaseBackoff = 100 * time.Millisecond
	migrationMaxBackoff  = 3 * time.Second
)

var retryablePgErrorCodes = map[string]struct{}{
	"40001": {}, // serialization_failure
	"40P01": {}, // deadlock_detected
	"55P03": {}, // lock_not_available
}

// Migration commands accepted by Migrate.
const (
	MigrateUp     = "up"
	MigrateStatus = "status"
)

// MigrationSource returns the embedded token-store migrations, or the .sql files in dir
// when dir is not empty.
func MigrationSource(dir string) fs.FS {
	if dir != "" {
		return os.DirFS(dir)
	}
	sub, err := fs.Sub(embeddedMigrations, "migrations")
	if err != nil {
		panic(err)
	}
	return sub
}

// ListMigrations returns the sorted migration file names found in source.
func ListMigrations(source fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(source, ".")
	if err != nil {
		return nil, fmt.Errorf("read migrations directory: %w", err)
	}

	var migrations []string
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		if path.Ext(entry.Name()) != ".sql" {
			continue
		}
		migrations = append(migrations, entry.Name())
	}

	sort.Strings(migrations)
	return migrations, nil
}

// Migrate applies (command "up") or reports (command "status") the token-store schema
// migrations. Progress lines are written to out.
func Migrate(ctx context.Context, pool db.Pool, source fs.FS, command string, out io.Writer) error {
	if command == "" {
		command = MigrateUp
	}

	migrations, err := ListMigrations(source)
	if err != nil {
		return err
	}

	conn, err := pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire connection: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, `CREATE TABLE IF NOT EXISTS schema_migrations (
                version TEXT PRIMARY KEY,
                applied_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
        )`); err != nil {
		return fmt.Errorf("ensure schema_migrations table: %w", err)
	}

	applied, err := appliedMigrations(ctx, conn)
	if err != nil {
		return err
	}

	switch command {
	case MigrateStatus:
		for _, name := range migrations {
			if _, ok := applied[name]; ok {
				fmt.Fprintf(out, "[x] %s\n", name)
			} else {
				fmt.Fprintf(out, "[ ] %s\n", name)
			}
		}
		return nil
	case MigrateUp:
		if len(migrations) == 0 {
			fmt.Fprintln(out, "no migrations to apply")
			return nil
		}

		for _, name := range migrations {
			if _, ok := applied[name]; ok {
				continue
			}

			contents, err := fs.ReadFile(source, name)
			if err != nil {
				return fmt.Errorf("read migration %s: %w", name, err)
			}

			if err := applyMigrationWithRetry(ctx, conn, name, string(contents), out); err != nil {
				return err
			}

			fmt.Fprintf(out, "applied migration %s\n", name)
		}
		return nil
	default:
		return fmt.Errorf("unknown migrate command %q", command)
	}
}

type migrationConn interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	BeginTx(ctx context.Context, txOptions pgx.TxOptions) (pgx.Tx, error)
}

func appliedMigrations(ctx context.Context, conn migrationConn) (map[string]struct{}, error) {
	rows, err := conn.Query(ctx, `SELECT version FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("fetch applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]struct{})
	for rows.Next() {
		var version string
		if err := rows.Scan(&version); err != nil {
			return nil, fmt.Errorf("scan applied migration: %w", err)
		}
		applied[version] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate applied migrations: %w", err)
	}
	return applied, nil
}

func applyMigrationWithRetry(ctx context.Context, conn migrationConn, name string, contents string, out io.Writer) error {
	var attempt int
	for attempt = 0; attempt < migrationMaxRetries; attempt++ {
		if attempt > 0 {
			if err := sleepBackoff(ctx, attempt); err != nil {
				return err
			}
		}

		tx, err := conn.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.Serializable})
		if err != nil {
			return fmt.Errorf("begin migration transaction for %s: %w", name, err)
		}

		stage, err := runMigrationTx(ctx, tx, name, contents)
		if err == nil {
			return nil
		}
		_ = tx.Rollback(ctx)
		if shouldRetryMigration(err) && attempt < migrationMaxRetries-1 {
			fmt.Fprintf(out, "transient error %s migration %s (attempt %d/%d): %v\n", stage, name, attempt+1, migrationMaxRetries, err)
			continue
		}
		return fmt.Errorf("%s migration %s: %w", stage, name, err)
	}

	return fmt.Errorf("apply migration %s: exceeded max retries (%d)", name, attempt)
}

func runMigrationTx(ctx context.Context, tx pgx.Tx, name, contents string) (string, error) {
	if _, err := tx.Exec(ctx, contents); err != nil {
		return "applying", err
	}
	if _, err := tx.Exec(ctx, `INSERT INTO schema_migrations (version) VALUES ($1)`, name); err != nil {
		return "recording", err
	}
	if err := tx.Commit(ctx); err != nil {
		return "committing", err
	}
	return "", nil
}

func sleepBackoff(ctx context.Context, attempt int) error {
	backoff := time.Duration(math.Pow(2, float64(attempt-1))) * migrationBaseBackoff
	if backoff > migrationMaxBackoff {
		backoff = migrationMaxBackoff
	}
	timer := time.NewTimer(backoff)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func shouldRetryMigration(err error) bool {
	if err == nil {
		return false
	}

	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}

	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		if _, ok := retryablePgErrorCodes[pgErr.Code]; ok {
			return true
		}
	}

	return errors.Is(err, pgx.ErrTxClosed)
}
