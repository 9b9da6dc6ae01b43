package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestOpenMemoryMigrates(t *testing.T) {
	d, err := OpenMemory()
	require.NoError(t, err)
	defer d.Close()

	for _, table := range []string{"subscribers", "rate_limits"} {
		var name string
		err := d.QueryRow(`SELECT name FROM sqlite_master WHERE type='table' AND name=?`, table).Scan(&name)
		require.NoError(t, err, table)
	}
	require.NoError(t, d.Migrate(context.Background()), "migrate twice")
}

func TestOpenCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "site.db")
	d, err := Open(path)
	require.NoError(t, err)
	defer d.Close()
	require.Equal(t, path, d.Path())
	require.NoError(t, d.PingContext(context.Background()))
}
