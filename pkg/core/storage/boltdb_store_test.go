package storage

import (
	"path/filepath"
	"testing"

	"github.com/nspcc-dev/mpt/pkg/core/storage/dbconfig"
	"github.com/stretchr/testify/require"
)

func newBoltStoreForTesting(t testing.TB) Store {
	d := t.TempDir()
	testFileName := filepath.Join(d, "test_bolt_db")
	boltDBStore, err := NewBoltDBStore(dbconfig.BoltDBOptions{FilePath: testFileName})
	require.NoError(t, err)
	return boltDBStore
}

func TestROBoltDB(t *testing.T) {
	d := t.TempDir()
	testFileName := filepath.Join(d, "test_ro_bolt_db")
	cfg := dbconfig.BoltDBOptions{
		FilePath: testFileName,
		ReadOnly: true,
	}

	// If DB doesn't exist, then error should be returned.
	_, err := NewBoltDBStore(cfg)
	require.Error(t, err)

	// Create the DB and try to open it in RO mode.
	cfg.ReadOnly = false
	store, err := NewBoltDBStore(cfg)
	require.NoError(t, err)
	require.NoError(t, store.Put([]byte{1}, []byte{1}))
	require.NoError(t, store.Close())
	cfg.ReadOnly = true

	store, err = NewBoltDBStore(cfg)
	require.NoError(t, err)
	// Changes must be prohibited.
	require.Error(t, store.Put([]byte{2}, []byte{2}))
	v, err := store.Get([]byte{1})
	require.NoError(t, err)
	require.Equal(t, []byte{1}, v)
	require.NoError(t, store.Close())
}
