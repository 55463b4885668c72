package repositories

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"testing/fstest"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListMigrationsSortsSQLFiles(t *testing.T) {
	source := fstest.MapFS{
		"0002_second.sql": {Data: []byte("SELECT 2")},
		"0001_first.sql":  {Data: []byte("SELECT 1")},
		"README.md":       {Data: []byte("docs")},
		"nested/0003.sql": {Data: []byte("SELECT 3")},
	}

	names, err := ListMigrations(source)
	require.NoError(t, err)
	assert.Equal(t, []string{"0001_first.sql", "0002_second.sql"}, names)
}

func TestEmbeddedMigrationsCreateTokenTable(t *testing.T) {
	source := MigrationSource("")

	names, err := ListMigrations(source)
	require.NoError(t, err)
	require.NotEmpty(t, names)
	assert.Equal(t, "0001_client_tokens.sql", names[0])
}

func TestShouldRetryMigration(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "deadline", err: fmt.Errorf("wrap: %w", context.DeadlineExceeded), want: true},
		{name: "serialization failure", err: &pgconn.PgError{Code: "40001"}, want: true},
		{name: "deadlock", err: &pgconn.PgError{Code: "40P01"}, want: true},
		{name: "syntax error", err: &pgconn.PgError{Code: "42601"}, want: false},
		{name: "tx closed", err: pgx.ErrTxClosed, want: true},
		{name: "other", err: errors.New("boom"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, shouldRetryMigration(tt.err))
		})
	}
}
