package rowstore

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// newTestDB opens a fresh temp-file SQLite database and migrates it,
// giving each test its own isolated schema instance.
func newTestDB(t *testing.T) *Database {
	t.Helper()
	db, err := Open(Config{Path: filepath.Join(t.TempDir(), "test.db")})
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	require.NoError(t, db.Migrate())
	return db
}

func TestMigrateCreatesDefaultDrop(t *testing.T) {
	db := newTestDB(t)

	drop, err := db.DropByName(DefaultDropName)
	require.NoError(t, err)
	require.NotNil(t, drop)
	require.Equal(t, DefaultDropName, drop.Name)

	retention, err := db.DropRetentionFor(drop.ID)
	require.NoError(t, err)
	require.NotNil(t, retention)
	require.NotNil(t, retention.TracesRetentionMS)
	require.NotNil(t, retention.EventsRetentionMS)
}

func TestMigrateIsIdempotent(t *testing.T) {
	db := newTestDB(t)
	require.NoError(t, db.Migrate())

	drops, err := db.ListDrops()
	require.NoError(t, err)
	require.Len(t, drops, 1)
}
