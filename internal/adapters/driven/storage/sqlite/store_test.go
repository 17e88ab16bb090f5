package sqlite

import (
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupTestStore creates a SQLite store in a temporary directory.
func setupTestStore(t *testing.T) *Store {
	t.Helper()

	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { assert.NoError(t, store.Close()) })
	return store
}

func TestNewStore_CreatesDatabase(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", "data")

	store, err := NewStore(dir)
	require.NoError(t, err)
	defer store.Close()

	assert.Equal(t, filepath.Join(dir, DBFileName), store.Path())
	_, err = os.Stat(store.Path())
	assert.NoError(t, err)
}

func TestNewStore_ReopenSkipsAppliedMigrations(t *testing.T) {
	dir := t.TempDir()

	first, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, first.Close())

	second, err := NewStore(dir)
	require.NoError(t, err)
	defer second.Close()

	var versions int
	require.NoError(t, second.db.QueryRow("SELECT COUNT(*) FROM schema_migrations").Scan(&versions))
	assert.Equal(t, 2, versions)
}

func TestMigrate_AppliesOnlyNewer(t *testing.T) {
	store := setupTestStore(t)

	extra := fstest.MapFS{
		"001_generations.up.sql": {Data: []byte("this would fail if executed")},
		"003_notes.up.sql":       {Data: []byte("CREATE TABLE notes (id TEXT PRIMARY KEY)")},
		"003_notes.down.sql":     {Data: []byte("DROP TABLE notes")},
		"README.md":              {Data: []byte("ignored")},
	}
	require.NoError(t, store.migrate(extra))

	var n int
	require.NoError(t, store.db.QueryRow("SELECT COUNT(*) FROM notes").Scan(&n))
	assert.Zero(t, n)
}

func TestMigrate_FailureRollsBack(t *testing.T) {
	store := setupTestStore(t)

	bad := fstest.MapFS{"005_broken.up.sql": {Data: []byte("CREATE TABLE")}}
	require.Error(t, store.migrate(bad))

	var maxVersion int
	require.NoError(t, store.db.QueryRow("SELECT MAX(version) FROM schema_migrations").Scan(&maxVersion))
	assert.Equal(t, 2, maxVersion)
}
