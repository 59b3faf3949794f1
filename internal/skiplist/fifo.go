package skiplist

// fifo is the insertion-order overlay: a doubly-linked chain through
// the index nodes, split into a cold prefix and a hot suffix.
//
//	oldestCold ... (cold) ... | oldestHot ... (hot) ... newest
//
// The cold segment runs from oldestCold up to but excluding oldestHot;
// the hot segment runs from oldestHot through newest. Either segment
// may be empty. Only hotBytes is capacity-bounded; coldBytes grows
// without bound until a separation flushes it.
//
// All fields are writer-only.
type fifo struct {
	threshold uint64

	oldestCold *node
	oldestHot  *node
	newest     *node

	// Retirement list: nodes superseded by a newer version of their
	// user key. Never visited by readers, never freed; it exists for
	// accounting and debugging.
	retired *node

	hotBytes     uint64
	coldBytes    uint64
	retiredBytes uint64
}

// rebalanceFor makes room for an incoming node of the given billed
// size, demoting nodes across the hot boundary oldest-first until the
// node fits or the hot segment is drained. It reports whether the new
// node lands in the hot segment.
func (f *fifo) rebalanceFor(size uint64) bool {
	for f.oldestHot != nil && f.hotBytes+size > f.threshold {
		d := f.oldestHot
		if f.oldestCold == nil {
			// No cold segment yet: the chain's head becomes the oldest
			// cold node. That head is d itself, cold is a prefix.
			f.oldestCold = d
		}
		f.hotBytes -= d.size
		f.coldBytes += d.size
		f.oldestHot = d.fifoNext
	}
	// With the hot segment drained, a node bigger than the whole
	// threshold is classified cold.
	return size <= f.threshold
}

// insert appends n to the chain tail and accounts its bytes to the
// segment rebalanceFor picked.
func (f *fifo) insert(n *node) {
	hot := f.rebalanceFor(n.size)

	if f.newest == nil {
		f.newest = n
	} else {
		n.fifoPrev = f.newest
		f.newest.fifoNext = n
		f.newest = n
	}

	if hot {
		f.hotBytes += n.size
		if f.oldestHot == nil {
			f.oldestHot = n
		}
	} else {
		f.coldBytes += n.size
		if f.oldestCold == nil {
			f.oldestCold = n
		}
	}
}

// retire unlinks n from the chain, moves its bytes to the retired
// account and prepends it to the retirement list. fromHot names the
// region the node was billed to.
func (f *fifo) retire(n *node, fromHot bool) {
	prev, next := n.fifoPrev, n.fifoNext
	if prev != nil {
		prev.fifoNext = next
	}
	if next != nil {
		next.fifoPrev = prev
	}

	if f.oldestCold == n {
		f.oldestCold = next
	}
	if f.oldestHot == n {
		f.oldestHot = next
	}
	if f.newest == n {
		f.newest = prev
	}

	n.fifoPrev = nil
	n.fifoNext = nil

	if fromHot {
		f.hotBytes -= n.size
	} else {
		f.coldBytes -= n.size
	}
	f.retiredBytes += n.size

	n.nextRetired = f.retired
	f.retired = n
}

// first returns the head of the chain in insertion order.
func (f *fifo) first() *node {
	if f.oldestCold != nil {
		return f.oldestCold
	}
	return f.oldestHot
}
