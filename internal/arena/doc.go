// Package arena provides a bump allocator for the write buffer.
//
// The arena hands out byte ranges from large heap chunks and never
// reclaims individual allocations; everything lives until the owning
// buffer is dropped. Readers may hold slices into arena memory at any
// time, which is exactly why nothing is ever freed or moved.
//
// # Concurrency Model
//
// Allocation is safe from multiple goroutines (lock-free CAS on the
// chunk offset), although the write buffer only ever allocates from a
// single writer. There is no Free: the chunks stay reachable until the
// arena itself is garbage collected.
package arena
