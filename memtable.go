package lsmgo

import (
	"fmt"
	"sync/atomic"

	"github.com/hupe1980/lsmgo/internal/arena"
	"github.com/hupe1980/lsmgo/internal/keys"
	"github.com/hupe1980/lsmgo/internal/resource"
	"github.com/hupe1980/lsmgo/internal/skiplist"
)

// Kind discriminates the operation an entry carries.
type Kind uint8

const (
	// KindDelete marks a tombstone.
	KindDelete = Kind(keys.KindDelete)
	// KindValue marks a regular put.
	KindValue = Kind(keys.KindValue)
)

// MaxSequence is the largest usable sequence number.
const MaxSequence = keys.MaxSequence

// ParsedEntry is a decoded buffer entry. Its byte slices alias arena
// memory owned by the MemTable the entry came from; they stay valid
// until that MemTable is destroyed.
type ParsedEntry struct {
	UserKey []byte
	Seq     uint64
	Kind    Kind
	Value   []byte
}

// MemTable is the in-memory write buffer: an ordered index over
// encoded entries with a FIFO hot/cold overlay.
//
// Writes require external serialization (one writer at a time). Get
// and key-order iterators may run concurrently with the writer;
// ExtractHot, Separate and insertion-order iterators require quiesced
// writes.
type MemTable struct {
	cmp    Comparator
	logger *Logger
	ctrl   *resource.Controller
	arena  *arena.Arena
	list   *skiplist.List

	refs atomic.Int32

	// Separation state, writer-only. A MemTable moves Active ->
	// Separated on the first Separate that reports cold data; the
	// outcome is cached so Separate is idempotent.
	separateDone    bool
	separateOutcome bool
}

// New creates an empty MemTable whose hot segment is capped at
// hotThresholdBytes of billed entry data.
//
// The caller owns the first reference: follow New with Ref, and
// destroy with Unref.
func New(hotThresholdBytes int, opts ...Option) *MemTable {
	o := options{
		comparator: BytewiseComparator(),
		logger:     NoopLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	var arenaOpts []arena.Option
	if o.controller != nil {
		arenaOpts = append(arenaOpts, arena.WithMemoryAcquirer(o.controller))
	}

	userCmp := keys.CompareFunc(o.comparator.Compare)

	return &MemTable{
		cmp:    o.comparator,
		logger: o.logger,
		ctrl:   o.controller,
		arena:  arena.New(o.arenaChunkSize, arenaOpts...),
		list: skiplist.New(skiplist.Config{
			CompareEntries:    keys.EntryCompare(userCmp),
			CompareTags:       keys.CompareTags,
			SameUserKey:       keys.SameUserKey(userCmp),
			HotThresholdBytes: uint64(hotThresholdBytes),
		}),
	}
}

// Ref increments the reference count.
func (m *MemTable) Ref() {
	m.refs.Add(1)
}

// Unref decrements the reference count and destroys the buffer when it
// reaches zero. Dropping below zero is a programming error and panics.
func (m *MemTable) Unref() {
	refs := m.refs.Add(-1)
	if refs < 0 {
		panic("lsmgo: memtable refcount below zero")
	}
	if refs == 0 {
		m.destroy()
	}
}

func (m *MemTable) destroy() {
	usage := m.arena.MemoryUsage()
	if m.ctrl != nil {
		m.ctrl.ReleaseMemory(int64(usage))
	}
	m.logger.LogDestroy(usage)
	m.list = nil
	m.arena = nil
}

// Add writes an entry for (seq, kind, userKey, value) into the buffer.
// Sequence numbers must be unique across the buffer's lifetime.
//
// If a previous version of userKey is present, that version is retired
// from the index and the overlay; its memory stays valid for in-flight
// readers.
func (m *MemTable) Add(seq uint64, kind Kind, userKey, value []byte) error {
	if m.separateDone && m.separateOutcome {
		return ErrSeparated
	}

	buf, err := m.arena.AllocAligned(keys.EntrySize(len(userKey), len(value)))
	if err != nil {
		return fmt.Errorf("lsmgo: add seq %d: %w", seq, err)
	}
	keys.EncodeEntry(buf, seq, keys.Kind(kind), userKey, value)

	m.list.Insert(buf)
	m.retireSuperseded(buf, userKey)
	return nil
}

// retireSuperseded retires the previous version of userKey, if any.
//
// The internal-key order puts the newest version of a user key first,
// so only the immediate level-0 successor of the entry just inserted
// can be the prior version of the same user key.
func (m *MemTable) retireSuperseded(entry, userKey []byte) {
	it := m.list.NewIterator()
	it.Seek(entry)
	it.Next()
	if !it.Valid() {
		return
	}
	older := it.Entry()
	if m.cmp.Compare(keys.UserKey(older), userKey) != 0 {
		return
	}

	// The superseded version sits in the hot segment iff it is not
	// older than the oldest hot entry. With no hot segment everything
	// is cold.
	fromHot := false
	if oldestHot, ok := m.list.OldestHotEntry(); ok {
		fromHot = keys.CompareTags(older, oldestHot) <= 0
	}
	m.list.Retire(older, fromHot)
}

// Get returns the value of the newest version of userKey visible at
// snapshotSeq. It returns ErrDeleted if that version is a tombstone
// and ErrNotFound if the buffer holds no visible version at all.
//
// The returned slice aliases arena memory; it stays valid until the
// MemTable is destroyed.
func (m *MemTable) Get(userKey []byte, snapshotSeq uint64) ([]byte, error) {
	it := m.list.NewIterator()
	it.Seek(keys.MakeLookupKey(userKey, snapshotSeq))
	if !it.Valid() {
		return nil, ErrNotFound
	}

	entry := it.Entry()
	if m.cmp.Compare(keys.UserKey(entry), userKey) != 0 {
		return nil, ErrNotFound
	}

	if _, kind := keys.Tag(entry); kind == keys.KindDelete {
		return nil, ErrDeleted
	}
	return keys.Value(entry), nil
}

// ExtractHot appends every entry of the hot segment to out, oldest
// first. Duplicate user keys are preserved in insertion order;
// resolving versions is the caller's job. Re-inserting the entries in
// the given order into a fresh MemTable keeps the newest version by
// virtue of its higher sequence.
//
// Requires quiesced writes.
func (m *MemTable) ExtractHot(out *[]ParsedEntry) {
	it := m.list.NewFIFOIterator()
	for it.SeekToOldestHot(); it.Valid(); it.Next() {
		entry := it.Entry()
		seq, kind := keys.Tag(entry)
		*out = append(*out, ParsedEntry{
			UserKey: keys.UserKey(entry),
			Seq:     seq,
			Kind:    Kind(kind),
			Value:   keys.Value(entry),
		})
	}
}

// Separate partitions the buffer and reports whether any cold data
// remained to flush. When it returns true, the key-order index
// afterwards holds exactly the cold survivors: for every user key whose
// live version was cold, the newest such version. Hot entries are then
// no longer reachable through the index; collect them with ExtractHot.
// When it returns false, the index is left untouched.
//
// Separate is idempotent: the first call decides, later calls return
// the cached outcome without touching the structure. After a Separate
// that returned true the buffer accepts no further writes.
//
// Requires quiesced writes.
func (m *MemTable) Separate() bool {
	if m.separateDone {
		return m.separateOutcome
	}
	m.separateDone = true

	oldestHot, ok := m.list.OldestHotEntry()
	if !ok {
		// No hot segment: everything is cold. Collapse the index to
		// one (newest) version per user key.
		m.list.RewriteLevel0(func([]byte) bool { return true })
		m.list.SetLevel0Only()
		m.separateOutcome = true
		m.logger.LogSeparate(true, m.list.HotBytes(), m.list.ColdBytes())
		return true
	}

	firstCold := m.findFirstCold(oldestHot)
	if firstCold == nil {
		m.separateOutcome = false
		m.logger.LogSeparate(false, m.list.HotBytes(), m.list.ColdBytes())
		return false
	}

	m.list.SetHead(firstCold)
	m.list.RewriteLevel0(func(entry []byte) bool {
		return keys.CompareTags(entry, oldestHot) > 0
	})
	// The rewrite leaves the levels above 0 stale; every later lookup
	// and scan sticks to level 0.
	m.list.SetLevel0Only()
	m.separateOutcome = true
	m.logger.LogSeparate(true, m.list.HotBytes(), m.list.ColdBytes())
	return true
}

// findFirstCold scans level 0 in key order, one user key at a time,
// for the first entry older than the oldest hot entry. Supersede
// retirement keeps a single live version per user key, so inspecting
// the first entry of each key run is enough.
func (m *MemTable) findFirstCold(oldestHot []byte) []byte {
	it := m.list.NewIterator()
	it.SeekToFirst()
	for it.Valid() {
		entry := it.Entry()
		if keys.CompareTags(entry, oldestHot) > 0 {
			return entry
		}
		if !m.skipToNextUserKey(it) {
			break
		}
	}
	return nil
}

// skipToNextUserKey advances the iterator until the user key changes.
// It reports false at the end of the list.
func (m *MemTable) skipToNextUserKey(it *skiplist.Iterator) bool {
	current := keys.UserKey(it.Entry())
	for {
		it.Next()
		if !it.Valid() {
			return false
		}
		if m.cmp.Compare(keys.UserKey(it.Entry()), current) != 0 {
			return true
		}
	}
}

// ApproximateMemoryUsage returns the bytes reserved by the buffer's
// arena.
func (m *MemTable) ApproximateMemoryUsage() uint64 {
	return m.arena.MemoryUsage()
}

// HotMemoryUsage returns the billed size of the hot segment.
func (m *MemTable) HotMemoryUsage() uint64 {
	return m.list.HotBytes()
}

// ColdMemoryUsage returns the billed size of the cold segment.
func (m *MemTable) ColdMemoryUsage() uint64 {
	return m.list.ColdBytes()
}

// RetiredMemoryUsage returns the billed size of all retired entries.
func (m *MemTable) RetiredMemoryUsage() uint64 {
	return m.list.RetiredBytes()
}
