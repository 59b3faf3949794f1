package skiplist

import (
	"sync/atomic"

	"github.com/zhangyunhao116/fastrand"
)

const (
	maxHeight = 12
	branching = 4
)

// NodeOverheadEstimate is the per-node bookkeeping cost billed on top
// of the entry bytes. It is a flat estimate rather than the exact size
// of the node and its tower: the tower height is a random draw, and
// billing it would make the hot/cold classification of identical
// workloads vary from run to run.
const NodeOverheadEstimate = 24

type node struct {
	entry []byte // encoded record, arena-backed
	size  uint64 // billed bytes: entry plus node overhead

	// Insertion-order links and the retirement chain. Writer-only.
	fifoPrev    *node
	fifoNext    *node
	nextRetired *node

	// tower[0] is the lowest level link.
	tower []atomic.Pointer[node]
}

func (n *node) next(level int) *node {
	return n.tower[level].Load()
}

// setNext publishes x at the given level. The atomic store is the
// release point: anybody who reads the pointer observes a fully
// initialized node.
func (n *node) setNext(level int, x *node) {
	n.tower[level].Store(x)
}

// Config carries the comparison functions and the hot capacity of the
// FIFO overlay.
type Config struct {
	// CompareEntries orders whole encoded records (user key ascending,
	// tag descending).
	CompareEntries func(a, b []byte) int
	// CompareTags orders records by tag only: negative means newer.
	CompareTags func(a, b []byte) int
	// SameUserKey reports whether two records carry the same user key.
	SameUserKey func(a, b []byte) bool
	// HotThresholdBytes caps the billed size of the hot segment.
	HotThresholdBytes uint64
}

// List is a single-writer multi-reader ordered index over encoded
// entries.
type List struct {
	cfg  Config
	head *node

	// Height of the entire list. Modified only by Insert; read racily
	// by readers, stale values are fine.
	height atomic.Int32

	// After a separation the levels above 0 are stale and every
	// descent must stick to level 0.
	level0Only atomic.Bool

	fifo fifo
}

// New creates an empty list.
func New(cfg Config) *List {
	l := &List{
		cfg:  cfg,
		head: &node{tower: make([]atomic.Pointer[node], maxHeight)},
	}
	l.height.Store(1)
	l.fifo.threshold = cfg.HotThresholdBytes
	return l
}

func (l *List) getMaxHeight() int {
	if l.level0Only.Load() {
		return 1
	}
	return int(l.height.Load())
}

func (l *List) randomHeight() int {
	h := 1
	for h < maxHeight && fastrand.Uint32n(branching) == 0 {
		h++
	}
	return h
}

// entryIsAfterNode reports whether entry orders after the data in n.
// A nil n acts as an infinite key.
func (l *List) entryIsAfterNode(entry []byte, n *node) bool {
	return n != nil && l.cfg.CompareEntries(n.entry, entry) < 0
}

// findGreaterOrEqual returns the earliest node at or after entry, or
// nil if there is none. If prev is non-nil it is filled with the
// predecessor at every level of the descent.
func (l *List) findGreaterOrEqual(entry []byte, prev *[maxHeight]*node) *node {
	x := l.head
	level := l.getMaxHeight() - 1
	for {
		next := x.next(level)
		if l.entryIsAfterNode(entry, next) {
			x = next
			continue
		}
		if prev != nil {
			prev[level] = x
		}
		if level == 0 {
			return next
		}
		level--
	}
}

// findLessThan returns the latest node before entry, or the head if
// there is none.
func (l *List) findLessThan(entry []byte) *node {
	x := l.head
	level := l.getMaxHeight() - 1
	for {
		next := x.next(level)
		if next == nil || l.cfg.CompareEntries(next.entry, entry) >= 0 {
			if level == 0 {
				return x
			}
			level--
			continue
		}
		x = next
	}
}

// findLast returns the last node in the list, or the head if the list
// is empty.
func (l *List) findLast() *node {
	x := l.head
	level := l.getMaxHeight() - 1
	for {
		next := x.next(level)
		if next == nil {
			if level == 0 {
				return x
			}
			level--
			continue
		}
		x = next
	}
}

// Insert adds an encoded entry to the index and appends its node to
// the FIFO overlay.
//
// REQUIRES: nothing that compares equal to entry is in the list.
func (l *List) Insert(entry []byte) {
	var prev [maxHeight]*node
	x := l.findGreaterOrEqual(entry, &prev)
	if x != nil && l.cfg.CompareEntries(x.entry, entry) == 0 {
		panic("skiplist: duplicate internal key")
	}

	height := l.randomHeight()
	if height > l.getMaxHeight() {
		for i := l.getMaxHeight(); i < height; i++ {
			prev[i] = l.head
		}
		// A concurrent reader observing the new height sees either the
		// old nil links at the head (and immediately drops a level) or
		// the pointers published below. Both are fine.
		l.height.Store(int32(height))
	}

	n := &node{
		entry: entry,
		size:  uint64(len(entry)) + NodeOverheadEstimate,
		tower: make([]atomic.Pointer[node], height),
	}
	for i := 0; i < height; i++ {
		n.tower[i].Store(prev[i].next(i))
		prev[i].setNext(i, n)
	}

	l.fifo.insert(n)
}

// Contains reports whether an entry comparing equal to entry is in the
// list.
func (l *List) Contains(entry []byte) bool {
	x := l.findGreaterOrEqual(entry, nil)
	return x != nil && l.cfg.CompareEntries(x.entry, entry) == 0
}

// Retire logically removes the node holding entry: it is unlinked from
// every index level and from the overlay chain, its bytes move to the
// retired account, and the node is pushed onto the retirement list.
// The node's memory stays valid for any reader still positioned on it.
//
// fromHot tells the overlay which region the node is billed to.
func (l *List) Retire(entry []byte, fromHot bool) {
	var prev [maxHeight]*node
	x := l.findGreaterOrEqual(entry, &prev)
	if x == nil || l.cfg.CompareEntries(x.entry, entry) != 0 {
		panic("skiplist: retiring an entry that is not in the list")
	}
	for i := 0; i < len(x.tower); i++ {
		prev[i].setNext(i, x.next(i))
	}
	l.fifo.retire(x, fromHot)
}

// SetHead reseats the level-0 head link to the node holding entry.
// Every node before it in key order drops out of the level-0 chain.
// Levels above 0 are left untouched and become stale; callers must
// follow up with SetLevel0Only.
func (l *List) SetHead(entry []byte) {
	x := l.findGreaterOrEqual(entry, nil)
	if x == nil || l.cfg.CompareEntries(x.entry, entry) != 0 {
		panic("skiplist: head target is not in the list")
	}
	l.head.setNext(0, x)
}

// RewriteLevel0 sweeps level 0 in key order and rebuilds it so that
// only entries satisfying keep remain, and among consecutive entries
// with the same user key only the first (newest) survives.
func (l *List) RewriteLevel0(keep func(entry []byte) bool) {
	prev := l.head
	var lastKept []byte
	x := l.head.next(0)
	for x != nil {
		next := x.next(0)
		if keep(x.entry) && (lastKept == nil || !l.cfg.SameUserKey(x.entry, lastKept)) {
			prev.setNext(0, x)
			prev = x
			lastKept = x.entry
		}
		x = next
	}
	prev.setNext(0, nil)
}

// SetLevel0Only confines every later descent, seek and scan to level
// 0. There is no way back: the higher levels are stale once a
// separation has rewritten the bottom level.
func (l *List) SetLevel0Only() {
	l.level0Only.Store(true)
}

// OldestHotEntry returns the entry of the oldest node in the hot
// segment, or false if the hot segment is empty.
func (l *List) OldestHotEntry() ([]byte, bool) {
	if l.fifo.oldestHot == nil {
		return nil, false
	}
	return l.fifo.oldestHot.entry, true
}

// HotBytes returns the billed size of the hot segment.
func (l *List) HotBytes() uint64 { return l.fifo.hotBytes }

// ColdBytes returns the billed size of the cold segment.
func (l *List) ColdBytes() uint64 { return l.fifo.coldBytes }

// RetiredBytes returns the billed size of all retired nodes.
func (l *List) RetiredBytes() uint64 { return l.fifo.retiredBytes }
