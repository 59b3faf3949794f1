package skiplist

// Iterator walks the list in key order. It snapshots nothing; each
// read reflects the state published at that moment.
type Iterator struct {
	l *List
	n *node
}

// NewIterator returns an iterator over the list. The returned iterator
// is not valid.
func (l *List) NewIterator() *Iterator {
	return &Iterator{l: l}
}

// Valid reports whether the iterator is positioned at a node.
func (it *Iterator) Valid() bool {
	return it.n != nil
}

// Entry returns the encoded record at the current position.
// REQUIRES: Valid()
func (it *Iterator) Entry() []byte {
	return it.n.entry
}

// Next advances to the next position.
// REQUIRES: Valid()
func (it *Iterator) Next() {
	it.n = it.n.next(0)
}

// Prev retreats to the previous position. There are no backward links
// at level 0, so this searches for the last node before the current
// entry.
// REQUIRES: Valid()
func (it *Iterator) Prev() {
	it.n = it.l.findLessThan(it.n.entry)
	if it.n == it.l.head {
		it.n = nil
	}
}

// Seek positions at the first entry at or after target.
func (it *Iterator) Seek(target []byte) {
	it.n = it.l.findGreaterOrEqual(target, nil)
}

// SeekToFirst positions at the first entry. The iterator is Valid iff
// the list is not empty.
func (it *Iterator) SeekToFirst() {
	it.n = it.l.head.next(0)
}

// SeekToLast positions at the last entry. The iterator is Valid iff
// the list is not empty.
func (it *Iterator) SeekToLast() {
	it.n = it.l.findLast()
	if it.n == it.l.head {
		it.n = nil
	}
}

// FIFOIterator walks the overlay chain in insertion order. It must not
// run concurrently with a writer.
type FIFOIterator struct {
	l *List
	n *node
}

// NewFIFOIterator returns an iterator over the overlay chain. The
// returned iterator is not valid.
func (l *List) NewFIFOIterator() *FIFOIterator {
	return &FIFOIterator{l: l}
}

// Valid reports whether the iterator is positioned at a node.
func (it *FIFOIterator) Valid() bool {
	return it.n != nil
}

// Entry returns the encoded record at the current position.
// REQUIRES: Valid()
func (it *FIFOIterator) Entry() []byte {
	return it.n.entry
}

// Next advances toward the newest node.
// REQUIRES: Valid()
func (it *FIFOIterator) Next() {
	it.n = it.n.fifoNext
}

// Prev retreats toward the oldest node.
// REQUIRES: Valid()
func (it *FIFOIterator) Prev() {
	it.n = it.n.fifoPrev
}

// Seek positions at the first entry at or after target in key order.
func (it *FIFOIterator) Seek(target []byte) {
	it.n = it.l.findGreaterOrEqual(target, nil)
}

// SeekToFirst positions at the oldest node of the chain.
func (it *FIFOIterator) SeekToFirst() {
	it.n = it.l.fifo.first()
}

// SeekToLast positions at the newest node of the chain.
func (it *FIFOIterator) SeekToLast() {
	it.n = it.l.fifo.newest
}

// SeekToOldestHot positions at the oldest node of the hot segment. The
// iterator ends up invalid if the hot segment is empty.
func (it *FIFOIterator) SeekToOldestHot() {
	it.n = it.l.fifo.oldestHot
}
