package store

import (
	"bytes"

	"github.com/google/btree"
)

// BTreeCacheable gives a KVStore a btree cache wrap.
type BTreeCacheable struct {
	KVStore
}

var _ CacheableKVStore = BTreeCacheable{}

// CacheWrap returns a layer whose writes reach the store only on Write.
func (b BTreeCacheable) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b.KVStore, b.NewBatch(), nil)
}

// MemStore returns a store that lives as long as the process. Tests and
// the in-memory ledger use it.
func MemStore() CacheableKVStore {
	e := EmptyKVStore{}
	return NewBTreeCacheWrap(e, e.NewBatch(), nil)
}

// ShowOpser returns an ordered list of all operations performed.
type ShowOpser interface {
	ShowOps() []Op
}

// LogableStore returns a store together with the list of operations that
// reached it. A cache wrap that is discarded never shows up in that list.
func LogableStore() (CacheableKVStore, ShowOpser) {
	e := EmptyKVStore{}
	b := NewNonAtomicBatch(e)
	return NewBTreeCacheWrap(e, b, nil), b
}

// BTreeCacheWrap keeps writes in a btree on top of a read only store and
// records them in a batch. Reads see the btree first.
type BTreeCacheWrap struct {
	bt    *btree.BTree
	free  *btree.FreeList
	back  ReadOnlyKVStore
	batch Batch
}

var _ KVCacheWrap = BTreeCacheWrap{}

// NewBTreeCacheWrap returns a cache over kv. All writes go to batch, so
// that Write applies them in order. free may be nil; layers stacked with
// CacheWrap share the free list of their parent.
func NewBTreeCacheWrap(kv ReadOnlyKVStore, batch Batch, free *btree.FreeList) BTreeCacheWrap {
	if free == nil {
		free = btree.NewFreeList(btree.DefaultFreeListSize)
	}
	return BTreeCacheWrap{
		bt:    btree.NewWithFreeList(2, free),
		free:  free,
		back:  kv,
		batch: batch,
	}
}

// CacheWrap stacks another layer on top of this one.
func (b BTreeCacheWrap) CacheWrap() KVCacheWrap {
	return NewBTreeCacheWrap(b, b.NewBatch(), b.free)
}

// NewBatch returns a batch writing into this layer.
func (b BTreeCacheWrap) NewBatch() Batch {
	return NewNonAtomicBatch(b)
}

// Write applies all writes to the store below and empties the layer.
func (b BTreeCacheWrap) Write() error {
	err := b.batch.Write()
	b.Discard()
	return err
}

// Discard drops all writes of this layer.
func (b BTreeCacheWrap) Discard() {
	for b.bt.Len() > 0 {
		b.bt.DeleteMin()
	}
}

func (b BTreeCacheWrap) Set(key, value []byte) error {
	b.bt.ReplaceOrInsert(entry{key: key, value: value})
	return b.batch.Set(key, value)
}

func (b BTreeCacheWrap) Delete(key []byte) error {
	b.bt.ReplaceOrInsert(entry{key: key, deleted: true})
	return b.batch.Delete(key)
}

func (b BTreeCacheWrap) Get(key []byte) ([]byte, error) {
	if e, ok := b.lookup(key); ok {
		return e.value, nil
	}
	return b.back.Get(key)
}

func (b BTreeCacheWrap) Has(key []byte) (bool, error) {
	if e, ok := b.lookup(key); ok {
		return !e.deleted, nil
	}
	return b.back.Has(key)
}

// lookup returns the entry this layer holds for key, if any.
func (b BTreeCacheWrap) lookup(key []byte) (entry, bool) {
	item := b.bt.Get(entry{key: key})
	if item == nil {
		return entry{}, false
	}
	return item.(entry), true
}

// Iterator returns keys in [start, end) in ascending order. A nil bound is
// open.
func (b BTreeCacheWrap) Iterator(start, end []byte) (Iterator, error) {
	below, err := b.back.Iterator(start, end)
	if err != nil {
		return nil, err
	}
	return newMergeIter(b.collect(start, end), below, false)
}

// ReverseIterator is Iterator in descending order.
func (b BTreeCacheWrap) ReverseIterator(start, end []byte) (Iterator, error) {
	below, err := b.back.ReverseIterator(start, end)
	if err != nil {
		return nil, err
	}
	own := b.collect(start, end)
	for i, j := 0, len(own)-1; i < j; i, j = i+1, j-1 {
		own[i], own[j] = own[j], own[i]
	}
	return newMergeIter(own, below, true)
}

// collect returns the entries of this layer within [start, end) in
// ascending order.
func (b BTreeCacheWrap) collect(start, end []byte) []entry {
	var res []entry
	visit := func(item btree.Item) bool {
		res = append(res, item.(entry))
		return true
	}
	switch {
	case start == nil && end == nil:
		b.bt.Ascend(visit)
	case start == nil:
		b.bt.AscendLessThan(entry{key: end}, visit)
	case end == nil:
		b.bt.AscendGreaterOrEqual(entry{key: start}, visit)
	default:
		b.bt.AscendRange(entry{key: start}, entry{key: end}, visit)
	}
	return res
}

// entry is a write held by a cache layer. A deleted entry hides the key
// in the layers below.
type entry struct {
	key     []byte
	value   []byte
	deleted bool
}

var _ btree.Item = entry{}

func (e entry) Less(than btree.Item) bool {
	return bytes.Compare(e.key, than.(entry).key) < 0
}

// mergeIter iterates the entries of a layer together with the store below.
// Where both hold a key, the layer wins.
type mergeIter struct {
	own     []entry
	below   Iterator
	reverse bool
}

var _ Iterator = (*mergeIter)(nil)

func newMergeIter(own []entry, below Iterator, reverse bool) (*mergeIter, error) {
	it := &mergeIter{own: own, below: below, reverse: reverse}
	if err := it.skipDeleted(); err != nil {
		below.Close()
		return nil, err
	}
	return it, nil
}

// heads tells which side holds the current key. Both are set when the key
// is present on both sides.
func (it *mergeIter) heads() (own, below bool) {
	hasOwn, hasBelow := len(it.own) > 0, it.below.Valid()
	if !hasOwn || !hasBelow {
		return hasOwn, hasBelow
	}
	cmp := bytes.Compare(it.own[0].key, it.below.Key())
	if it.reverse {
		cmp = -cmp
	}
	return cmp <= 0, cmp >= 0
}

func (it *mergeIter) advance(own, below bool) error {
	if own {
		it.own = it.own[1:]
	}
	if below {
		return it.below.Next()
	}
	return nil
}

func (it *mergeIter) skipDeleted() error {
	for {
		own, below := it.heads()
		if !own || !it.own[0].deleted {
			return nil
		}
		if err := it.advance(own, below); err != nil {
			return err
		}
	}
}

func (it *mergeIter) Valid() bool {
	return len(it.own) > 0 || it.below.Valid()
}

// Next moves to the following key. It panics when the iterator is not
// valid.
func (it *mergeIter) Next() error {
	own, below := it.heads()
	if !own && !below {
		panic("iterator advanced past the end")
	}
	if err := it.advance(own, below); err != nil {
		return err
	}
	return it.skipDeleted()
}

func (it *mergeIter) Key() []byte {
	if own, _ := it.heads(); own {
		return it.own[0].key
	}
	return it.below.Key()
}

func (it *mergeIter) Value() []byte {
	if own, _ := it.heads(); own {
		return it.own[0].value
	}
	return it.below.Value()
}

func (it *mergeIter) Close() {
	it.own = nil
	it.below.Close()
}
