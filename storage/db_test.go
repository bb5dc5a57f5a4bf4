package storage

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemDBBatchAppliesAllOperations(t *testing.T) {
	db := NewMemDB()
	defer db.Close()

	require.NoError(t, db.Put([]byte("stale"), []byte("x")))

	batch := NewBatch()
	batch.Put([]byte("a"), []byte("1"))
	batch.Put([]byte("b"), []byte("2"))
	batch.Delete([]byte("stale"))
	require.Equal(t, 3, batch.Len())
	require.NoError(t, db.Write(batch))

	got, err := db.Get([]byte("a"))
	require.NoError(t, err)
	require.Equal(t, []byte("1"), got)

	_, err = db.Get([]byte("stale"))
	require.ErrorIs(t, err, ErrNotFound)
	require.Equal(t, 2, db.Len())
}

func TestMemDBGetReturnsCopy(t *testing.T) {
	db := NewMemDB()
	require.NoError(t, db.Put([]byte("k"), []byte{1, 2, 3}))

	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	got[0] = 9

	again, err := db.Get([]byte("k"))
	require.NoError(t, err)
	require.Equal(t, []byte{1, 2, 3}, again)
}

func TestLevelDBBatchPersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	db1, err := NewLevelDB(dir)
	require.NoError(t, err)

	batch := NewBatch()
	batch.Put([]byte("key"), []byte("value"))
	require.NoError(t, db1.Write(batch))
	db1.Close()

	db2, err := NewLevelDB(dir)
	require.NoError(t, err)
	defer db2.Close()

	got, err := db2.Get([]byte("key"))
	require.NoError(t, err)
	require.Equal(t, []byte("value"), got)

	require.NoError(t, db2.Delete([]byte("key")))
	_, err = db2.Get([]byte("key"))
	require.ErrorIs(t, err, ErrNotFound)
}
