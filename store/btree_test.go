package store

import (
	"bytes"
	"crypto/rand"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestBTreeCacheGetSet does basic sanity checks on our cache
//
// Other tests should handle deletes, setting same value,
// iterating over ranges, and general fuzzing
func TestBTreeCacheGetSet(t *testing.T) {
	// devnull is a black hole... just to keep our types proper
	devnull := BTreeCacheable{EmptyKVStore{}}

	// base is the root of our data, we can layer on top and
	// all queries should work
	base := devnull.CacheWrap()

	k, v := []byte("french"), []byte("fry")
	assertGet(t, base, k, nil)
	require.NoError(t, base.Set(k, v))
	assertGet(t, base, k, v)

	// now layer another btree on top and make sure that we get
	// base data
	cache := base.CacheWrap()
	assertGet(t, cache, k, v)

	// writing more data is only visible in the cache
	k2, v2 := []byte("LA"), []byte("Dodgers")
	assertGet(t, cache, k2, nil)
	require.NoError(t, cache.Set(k2, v2))
	assertGet(t, cache, k2, v2)
	assertGet(t, base, k2, nil)

	// we can write the cache to the base layer...
	require.NoError(t, cache.Write())
	assertGet(t, base, k, v)
	assertGet(t, base, k2, v2)

	// we can discard one
	k3, v3 := []byte("Bayern"), []byte("Munich")
	c2 := base.CacheWrap()
	assertGet(t, c2, k, v)
	require.NoError(t, c2.Set(k3, v3))
	c2.Discard()

	// and commit another
	c3 := base.CacheWrap()
	require.NoError(t, c3.Delete(k))
	require.NoError(t, c3.Write())

	// make sure it commits proper
	assertGet(t, base, k, nil)
	assertGet(t, base, k2, v2)
	assertGet(t, base, k3, nil)

	// and to test devnull....
	require.NoError(t, base.Write())
	assertGet(t, devnull, k2, nil)
}

func TestLogableStoreSeesOnlyWrittenOps(t *testing.T) {
	kv, ops := LogableStore()

	discarded := kv.CacheWrap()
	require.NoError(t, discarded.Set([]byte("a"), []byte("1")))
	discarded.Discard()
	assert.Len(t, ops.ShowOps(), 0)

	written := kv.CacheWrap()
	require.NoError(t, written.Set([]byte("b"), []byte("2")))
	require.NoError(t, written.Delete([]byte("c")))
	require.NoError(t, written.Write())
	assert.Equal(t, []Op{SetOp([]byte("b"), []byte("2")), DelOp([]byte("c"))}, ops.ShowOps())
}

// TestBTreeCacheConflicts checks that we can handle
// overwriting values and deleting underlying values
func TestBTreeCacheConflicts(t *testing.T) {
	devnull := BTreeCacheable{EmptyKVStore{}}

	ks := randKeys(10, 16)
	vs := randKeys(20, 40)

	parent := devnull.CacheWrap()
	for _, op := range []Op{SetOp(ks[1], vs[1]), SetOp(ks[2], vs[2])} {
		require.NoError(t, op.Apply(parent))
	}
	child := parent.CacheWrap()
	for _, op := range []Op{SetOp(ks[1], vs[11]), SetOp(ks[3], vs[7]), DelOp(ks[2])} {
		require.NoError(t, op.Apply(child))
	}

	// now check the parent is unaffected
	for _, q := range []Model{Pair(ks[1], vs[1]), Pair(ks[2], vs[2]), Pair(ks[3], nil)} {
		assertGet(t, parent, q.Key, q.Value)
	}

	// the child shows changes
	childQueries := []Model{Pair(ks[1], vs[11]), Pair(ks[2], nil), Pair(ks[3], vs[7])}
	for _, q := range childQueries {
		assertGet(t, child, q.Key, q.Value)
	}

	// write child to parent and make sure it also shows proper data
	require.NoError(t, child.Write())
	for _, q := range childQueries {
		assertGet(t, parent, q.Key, q.Value)
	}
}

// TestSliceIterator makes sure the basic slice iterator works
func TestSliceIterator(t *testing.T) {
	const Size = 10

	ks := randKeys(Size, 8)
	vs := randKeys(Size, 40)

	models := make([]Model, Size)
	for i := 0; i < Size; i++ {
		models[i] = Pair(ks[i], vs[i])
	}

	i := 0
	for iter := NewSliceIterator(models); iter.Valid(); require.NoError(t, iter.Next()) {
		assert.True(t, i < Size)
		assert.Equal(t, ks[i], iter.Key())
		assert.Equal(t, vs[i], iter.Value())
		i++
	}
	assert.Equal(t, Size, i)

	// iterator is invalid after close
	trash := NewSliceIterator(models)
	assert.True(t, trash.Valid())
	trash.Close()
	assert.False(t, trash.Valid())
}

// TestBTreeCacheBasicIterator makes sure the basic iterator
// works. Includes random deletes and a nested cache layer.
func TestBTreeCacheBasicIterator(t *testing.T) {
	const Size = 50
	const DeleteCount = 20
	const TotalSize = Size + DeleteCount

	models := make([]Model, TotalSize)
	for i := 0; i < TotalSize; i++ {
		models[i] = Pair(randBytes(8), randBytes(40))
	}

	devnull := BTreeCacheable{EmptyKVStore{}}
	base := devnull.CacheWrap()
	for i := 0; i < TotalSize; i++ {
		require.NoError(t, base.Set(models[i].Key, models[i].Value))
	}
	// delete the first chunk in a child layer
	child := base.CacheWrap()
	for i := 0; i < DeleteCount; i++ {
		require.NoError(t, child.Delete(models[i].Key))
	}
	models = models[DeleteCount:]

	sort.Slice(models, func(i, j int) bool {
		return bytes.Compare(models[i].Key, models[j].Key) < 0
	})

	verifyIterator(t, models, mustIter(child.Iterator(nil, nil)))
	verifyIterator(t, models[10:], mustIter(child.Iterator(models[10].Key, nil)))
	verifyIterator(t, models[:Size-8], mustIter(child.Iterator(nil, models[Size-8].Key)))
	verifyIterator(t, models[17:28], mustIter(child.Iterator(models[17].Key, models[28].Key)))

	verifyIterator(t, reverse(models), mustIter(child.ReverseIterator(nil, nil)))
	verifyIterator(t, reverse(models[34:]), mustIter(child.ReverseIterator(models[34].Key, nil)))
	verifyIterator(t, reverse(models[:19]), mustIter(child.ReverseIterator(nil, models[19].Key)))
	verifyIterator(t, reverse(models[6:26]), mustIter(child.ReverseIterator(models[6].Key, models[26].Key)))
}

func assertGet(t *testing.T, kv ReadOnlyKVStore, key, want []byte) {
	t.Helper()
	got, err := kv.Get(key)
	require.NoError(t, err)
	assert.Equal(t, want, got)
	has, err := kv.Has(key)
	require.NoError(t, err)
	assert.Equal(t, want != nil, has)
}

func mustIter(it Iterator, err error) Iterator {
	if err != nil {
		panic(err)
	}
	return it
}

func verifyIterator(t *testing.T, models []Model, iter Iterator) {
	t.Helper()
	for i := 0; i < len(models); i++ {
		require.True(t, iter.Valid(), "%d", i)
		assert.Equal(t, models[i].Key, iter.Key(), "%d", i)
		assert.Equal(t, models[i].Value, iter.Value(), "%d", i)
		require.NoError(t, iter.Next())
	}
	assert.False(t, iter.Valid())
	iter.Close()
}

// reverse returns a copy of the slice with elements in reverse order
func reverse(models []Model) []Model {
	max := len(models)
	res := make([]Model, max)
	for i := 0; i < max; i++ {
		res[i] = models[max-1-i]
	}
	return res
}

// randKeys returns a slice of count keys, all of length
func randKeys(count, length int) [][]byte {
	res := make([][]byte, count)
	for i := 0; i < count; i++ {
		res[i] = randBytes(length)
	}
	return res
}

func randBytes(length int) []byte {
	res := make([]byte, length)
	rand.Read(res)
	return res
}
