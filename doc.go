// Package lsmgo provides the in-memory write buffer of a
// log-structured key-value store, with hot/cold separation.
//
// A MemTable absorbs sequenced writes, serves point lookups at a given
// snapshot, and on request partitions its contents into a hot working
// set (retained in a successor buffer) and a cold residue (flushed to
// disk by the caller).
//
// # Quick Start
//
//	mt := lsmgo.New(64 << 10) // 64 KiB hot capacity
//	mt.Ref()
//	defer mt.Unref()
//
//	mt.Add(100, lsmgo.KindValue, []byte("k1"), []byte("v1"))
//	mt.Add(101, lsmgo.KindDelete, []byte("k1"), nil)
//
//	v, err := mt.Get([]byte("k1"), 100) // "v1", nil
//	v, err = mt.Get([]byte("k1"), 101)  // nil, ErrDeleted
//
// # Flushing
//
// When the buffer is full the caller separates it:
//
//	if mt.Separate() {
//	    // cold survivors remain inside mt, one (newest) version per
//	    // user key; scan them with NewIterator and write them out.
//	}
//	var hot []lsmgo.ParsedEntry
//	mt.ExtractHot(&hot)
//	// re-insert hot entries, in order, into a fresh MemTable
//
// # Concurrency
//
// One writer, many readers. Writes (Add, Separate) require external
// serialization; Get and key-order iterators run concurrently with the
// writer without locks. Insertion-order iterators, ExtractHot and
// Separate require quiesced writes.
package lsmgo
