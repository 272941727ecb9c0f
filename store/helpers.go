package store

import "github.com/iov-one/swapvault/errors"

// SliceIterator iterates over models held in memory.
type SliceIterator struct {
	data []Model
}

var _ Iterator = (*SliceIterator)(nil)

// NewSliceIterator returns an iterator over data, in the given order.
func NewSliceIterator(data []Model) *SliceIterator {
	return &SliceIterator{data: data}
}

func (s *SliceIterator) Valid() bool {
	return len(s.data) > 0
}

// Next panics when the iterator is not valid.
func (s *SliceIterator) Next() error {
	s.mustBeValid()
	s.data = s.data[1:]
	return nil
}

func (s *SliceIterator) Key() []byte {
	s.mustBeValid()
	return s.data[0].Key
}

func (s *SliceIterator) Value() []byte {
	s.mustBeValid()
	return s.data[0].Value
}

func (s *SliceIterator) Close() {
	s.data = nil
}

func (s *SliceIterator) mustBeValid() {
	if len(s.data) == 0 {
		panic("iterator advanced past the end")
	}
}

// EmptyKVStore holds nothing and ignores writes. It is the bottom of an
// in-memory store.
type EmptyKVStore struct{}

var _ KVStore = EmptyKVStore{}

func (EmptyKVStore) Get([]byte) ([]byte, error) { return nil, nil }

func (EmptyKVStore) Has([]byte) (bool, error) { return false, nil }

func (EmptyKVStore) Set(_, _ []byte) error { return nil }

func (EmptyKVStore) Delete([]byte) error { return nil }

func (EmptyKVStore) Iterator(_, _ []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}

func (EmptyKVStore) ReverseIterator(_, _ []byte) (Iterator, error) {
	return NewSliceIterator(nil), nil
}

func (e EmptyKVStore) NewBatch() Batch {
	return NewNonAtomicBatch(e)
}

// Op is a recorded write: a set, or a delete when Value is nil.
type Op struct {
	Key   []byte
	Value []byte
}

// SetOp records writing value at key. A nil value is stored as empty.
func SetOp(key, value []byte) Op {
	if value == nil {
		value = []byte{}
	}
	return Op{Key: key, Value: value}
}

// DelOp records deleting key.
func DelOp(key []byte) Op {
	return Op{Key: key}
}

// IsDelete returns true for a recorded delete.
func (o Op) IsDelete() bool {
	return o.Value == nil
}

// Apply performs the write on out.
func (o Op) Apply(out SetDeleter) error {
	if o.IsDelete() {
		return out.Delete(o.Key)
	}
	return out.Set(o.Key, o.Value)
}

// NonAtomicBatch records writes and applies them one by one on Write. A
// failing write leaves the ones before it applied, so it must only be
// used over stores that are themselves discarded on failure, like a cache
// wrap or a tree committed explicitly.
type NonAtomicBatch struct {
	out SetDeleter
	ops []Op
}

var _ Batch = (*NonAtomicBatch)(nil)

// NewNonAtomicBatch returns an empty batch writing to out.
func NewNonAtomicBatch(out SetDeleter) *NonAtomicBatch {
	return &NonAtomicBatch{out: out}
}

func (b *NonAtomicBatch) Set(key, value []byte) error {
	b.ops = append(b.ops, SetOp(key, value))
	return nil
}

func (b *NonAtomicBatch) Delete(key []byte) error {
	b.ops = append(b.ops, DelOp(key))
	return nil
}

// Write applies and forgets the recorded writes.
func (b *NonAtomicBatch) Write() error {
	for i, op := range b.ops {
		if err := op.Apply(b.out); err != nil {
			b.ops = b.ops[i:]
			return errors.Wrapf(err, "op %d", i)
		}
	}
	b.ops = nil
	return nil
}

// ShowOps returns the writes recorded and not yet applied.
func (b *NonAtomicBatch) ShowOps() []Op {
	return b.ops
}
