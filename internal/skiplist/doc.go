// Package skiplist implements the ordered index of the write buffer:
// a probabilistic multi-level list over encoded entries, with an
// insertion-order FIFO overlay threaded through the same nodes.
//
// # Thread safety
//
// Writes require external synchronization; there is exactly one writer
// at a time. Reads of the key-order index progress without locking:
// nodes are published bottom-up through atomic pointers, so a reader
// either sees a fully linked node or does not see it at all. Nodes are
// never unlinked-and-freed; a retired node stays allocated so that a
// reader holding a stale pointer never dereferences freed memory.
//
// The FIFO overlay (insertion-order links, segment heads, byte
// counters) is maintained by the writer only and provides no reader
// concurrency. Overlay iteration is legal only while writes are
// quiesced.
package skiplist
