// Package keys implements the encoded entry format and key ordering of
// the write buffer.
//
// An entry is a single contiguous record:
//
//	klen    uvarint   length of the internal key (user key + 8)
//	ukey    klen-8 bytes
//	tag     fixed64   (sequence << 8) | kind, little-endian
//	vlen    uvarint
//	value   vlen bytes
//
// The internal key is ukey||tag. Internal keys order by user key
// ascending and, for equal user keys, by tag descending, so a forward
// scan yields the newest version of a key first.
//
// All comparators in this package operate on whole encoded records. A
// lookup key (varint-prefixed internal key without a value part) parses
// identically as far as any comparator reads, which lets seek targets
// and stored entries share one comparison path.
package keys
