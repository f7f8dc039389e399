package db

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpen_FreshDatabase(t *testing.T) {
	database, err := Open(filepath.Join(t.TempDir(), "nested", "content.db"))
	require.NoError(t, err)
	defer database.Close()

	var version int
	require.NoError(t, database.QueryRow("SELECT MAX(version) FROM schema_version").Scan(&version))
	assert.Equal(t, len(migrations), version)

	for _, table := range []string{"nodes", "properties", "change_log"} {
		var n int
		require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name = ?", table).Scan(&n))
		assert.Equal(t, 1, n, table)
	}
}

func TestOpen_ReopenIsIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "content.db")
	first, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := Open(path)
	require.NoError(t, err)
	defer second.Close()

	var rows int
	require.NoError(t, second.QueryRow("SELECT COUNT(*) FROM schema_version").Scan(&rows))
	assert.Equal(t, len(migrations), rows)
}

func TestRunMigrations_UpgradesUnversionedDatabase(t *testing.T) {
	database, err := Open(":memory:")
	require.NoError(t, err)
	defer database.Close()

	_, err = database.Exec("DROP TABLE schema_version; DROP TABLE change_log;")
	require.NoError(t, err)

	require.NoError(t, InitSchema(database))

	var n int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='change_log'").Scan(&n))
	assert.Equal(t, 1, n)
}

func TestSeedFixtures(t *testing.T) {
	database, err := Open(":memory:")
	require.NoError(t, err)
	defer database.Close()

	require.NoError(t, SeedFixtures(database))

	var path string
	require.NoError(t, database.QueryRow("SELECT path FROM nodes WHERE id = ?", SampleFormID).Scan(&path))
	assert.Equal(t, "/sites/default/contents/forms/contact", path)

	var steps int
	require.NoError(t, database.QueryRow("SELECT COUNT(*) FROM nodes WHERE node_type = 'fmdb:fieldset'").Scan(&steps))
	assert.Equal(t, 2, steps)
}
