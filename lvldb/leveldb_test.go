// Copyright (c) 2025 The VeChainThor developers
//
// Distributed under the GNU Lesser General Public License v3.0 software license, see the accompanying
// file LICENSE or <https://www.gnu.org/licenses/lgpl-3.0.html>

package lvldb

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tonconfig/confignode/kv"
)

func TestLevelDB(t *testing.T) {
	var (
		key        = []byte("123")
		value      = []byte("456")
		inValidKey = []byte("abc")
	)

	disk, err := New(filepath.Join(t.TempDir(), "lvldb"), 16)
	require.NoError(t, err)
	defer disk.Close()

	mem, err := NewMem()
	require.NoError(t, err)
	defer mem.Close()

	for _, db := range []*LevelDB{disk, mem} {
		require.NoError(t, db.Put(key, value))

		got, err := db.Get(key)
		assert.NoError(t, err)
		assert.Equal(t, value, got)

		has, err := db.Has(key)
		assert.NoError(t, err)
		assert.True(t, has)

		has, err = db.Has(inValidKey)
		assert.NoError(t, err)
		assert.False(t, has)

		require.NoError(t, db.Delete(key))
		_, err = db.Get(key)
		assert.True(t, db.IsNotFound(err))
	}
}

func TestLevelDBBulk(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	bulk := db.Bulk()
	require.NoError(t, bulk.Put([]byte("p1"), []byte("a")))
	require.NoError(t, bulk.Put([]byte("p2"), []byte("b")))
	require.NoError(t, bulk.Put([]byte("q1"), []byte("c")))
	assert.Equal(t, 3, bulk.Len())

	has, _ := db.Has([]byte("p1"))
	assert.False(t, has, "bulk is not applied before write")

	require.NoError(t, bulk.Write())

	iter := db.Iterate(kv.PrefixRange([]byte("p")))
	defer iter.Release()
	var keys []string
	for iter.Next() {
		keys = append(keys, string(iter.Key()))
	}
	assert.NoError(t, iter.Error())
	assert.Equal(t, []string{"p1", "p2"}, keys)
}

func TestBucketStore(t *testing.T) {
	db, err := NewMem()
	require.NoError(t, err)
	defer db.Close()

	params := kv.Bucket("p").NewStore(db)
	require.NoError(t, params.Put([]byte{1}, []byte("one")))
	require.NoError(t, params.Put([]byte{2}, []byte("two")))
	require.NoError(t, db.Put([]byte("q"), []byte("other")))

	raw, err := db.Get([]byte{'p', 1})
	require.NoError(t, err)
	assert.Equal(t, []byte("one"), raw)

	iter := params.Iterate(kv.Range{})
	defer iter.Release()
	var keys [][]byte
	for iter.Next() {
		keys = append(keys, append([]byte(nil), iter.Key()...))
	}
	assert.Equal(t, [][]byte{{1}, {2}}, keys)
}

func TestReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "lvldb")

	// a cache below the floor is raised, not rejected
	db, err := New(path, 0)
	require.NoError(t, err)
	bulk := db.Bulk()
	require.NoError(t, bulk.Put([]byte("k"), []byte("v")))
	require.NoError(t, bulk.Delete([]byte("gone")))
	require.NoError(t, bulk.Write())
	require.NoError(t, db.Close())

	db, err = New(path, 64)
	require.NoError(t, err)
	defer db.Close()
	got, err := db.Get([]byte("k"))
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)
}
