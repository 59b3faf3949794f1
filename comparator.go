package lsmgo

import "bytes"

// Comparator defines a total order over user keys.
type Comparator interface {
	// Compare returns a negative, zero or positive value as a is
	// ordered before, equal to or after b.
	Compare(a, b []byte) int

	// Name identifies the comparator. A buffer's contents only make
	// sense to consumers using the same comparator.
	Name() string
}

type bytewiseComparator struct{}

func (bytewiseComparator) Compare(a, b []byte) int { return bytes.Compare(a, b) }

func (bytewiseComparator) Name() string { return "lsmgo.BytewiseComparator" }

// BytewiseComparator returns the default comparator: lexicographic
// byte order.
func BytewiseComparator() Comparator {
	return bytewiseComparator{}
}
