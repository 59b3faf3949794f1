package lsmgo

import (
	"github.com/hupe1980/lsmgo/internal/keys"
	"github.com/hupe1980/lsmgo/internal/skiplist"
)

// Iterator is a read-only view over the buffer in key order: user key
// ascending, newest version first within a key.
//
// Key and Value return borrows into arena memory, valid until the
// MemTable is destroyed. Iterators snapshot nothing; they reflect the
// state visible at each read. An iterator must not outlive its
// MemTable.
type Iterator struct {
	it *skiplist.Iterator
}

// NewIterator returns an iterator over the key-order index. The
// returned iterator is not valid; seek it first.
func (m *MemTable) NewIterator() *Iterator {
	return &Iterator{it: m.list.NewIterator()}
}

// Valid reports whether the iterator is positioned at an entry.
func (it *Iterator) Valid() bool { return it.it.Valid() }

// Seek positions at the newest version of userKey visible at
// snapshotSeq, or the next user key after it.
func (it *Iterator) Seek(userKey []byte, snapshotSeq uint64) {
	it.it.Seek(keys.MakeLookupKey(userKey, snapshotSeq))
}

// SeekToFirst positions at the first entry.
func (it *Iterator) SeekToFirst() { it.it.SeekToFirst() }

// SeekToLast positions at the last entry.
func (it *Iterator) SeekToLast() { it.it.SeekToLast() }

// Next advances to the next entry in key order.
// REQUIRES: Valid()
func (it *Iterator) Next() { it.it.Next() }

// Prev retreats to the previous entry in key order.
// REQUIRES: Valid()
func (it *Iterator) Prev() { it.it.Prev() }

// Key returns the internal key (user key plus tag) at the current
// position.
// REQUIRES: Valid()
func (it *Iterator) Key() []byte { return keys.InternalKey(it.it.Entry()) }

// UserKey returns the user key at the current position.
// REQUIRES: Valid()
func (it *Iterator) UserKey() []byte { return keys.UserKey(it.it.Entry()) }

// Seq returns the sequence number at the current position.
// REQUIRES: Valid()
func (it *Iterator) Seq() uint64 {
	seq, _ := keys.Tag(it.it.Entry())
	return seq
}

// Kind returns the operation kind at the current position.
// REQUIRES: Valid()
func (it *Iterator) Kind() Kind {
	_, kind := keys.Tag(it.it.Entry())
	return Kind(kind)
}

// Value returns the value at the current position. Tombstones carry an
// empty value.
// REQUIRES: Valid()
func (it *Iterator) Value() []byte { return keys.Value(it.it.Entry()) }

// FIFOIterator is a read-only view over the buffer in insertion order,
// oldest entry first. It exposes the hot/cold boundary through
// SeekToOldestHot.
//
// The overlay provides no reader/writer concurrency: a FIFOIterator
// must only be used while writes are quiesced.
type FIFOIterator struct {
	it *skiplist.FIFOIterator
}

// NewFIFOIterator returns an iterator over the insertion-order chain.
// The returned iterator is not valid; seek it first.
func (m *MemTable) NewFIFOIterator() *FIFOIterator {
	return &FIFOIterator{it: m.list.NewFIFOIterator()}
}

// Valid reports whether the iterator is positioned at an entry.
func (it *FIFOIterator) Valid() bool { return it.it.Valid() }

// Seek positions at the newest version of userKey visible at
// snapshotSeq, in key order.
func (it *FIFOIterator) Seek(userKey []byte, snapshotSeq uint64) {
	it.it.Seek(keys.MakeLookupKey(userKey, snapshotSeq))
}

// SeekToFirst positions at the oldest entry.
func (it *FIFOIterator) SeekToFirst() { it.it.SeekToFirst() }

// SeekToLast positions at the newest entry.
func (it *FIFOIterator) SeekToLast() { it.it.SeekToLast() }

// SeekToOldestHot positions at the oldest entry of the hot segment.
// The iterator ends up invalid if the hot segment is empty.
func (it *FIFOIterator) SeekToOldestHot() { it.it.SeekToOldestHot() }

// Next advances toward the newest entry.
// REQUIRES: Valid()
func (it *FIFOIterator) Next() { it.it.Next() }

// Prev retreats toward the oldest entry.
// REQUIRES: Valid()
func (it *FIFOIterator) Prev() { it.it.Prev() }

// Key returns the internal key at the current position.
// REQUIRES: Valid()
func (it *FIFOIterator) Key() []byte { return keys.InternalKey(it.it.Entry()) }

// UserKey returns the user key at the current position.
// REQUIRES: Valid()
func (it *FIFOIterator) UserKey() []byte { return keys.UserKey(it.it.Entry()) }

// Seq returns the sequence number at the current position.
// REQUIRES: Valid()
func (it *FIFOIterator) Seq() uint64 {
	seq, _ := keys.Tag(it.it.Entry())
	return seq
}

// Kind returns the operation kind at the current position.
// REQUIRES: Valid()
func (it *FIFOIterator) Kind() Kind {
	_, kind := keys.Tag(it.it.Entry())
	return Kind(kind)
}

// Value returns the value at the current position.
// REQUIRES: Valid()
func (it *FIFOIterator) Value() []byte { return keys.Value(it.it.Entry()) }
