package lsmgo

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Get when the buffer holds no visible
	// version of the key.
	ErrNotFound = errors.New("lsmgo: not found")

	// ErrDeleted is returned by Get when the newest visible version of
	// the key is a tombstone. It matches errors.Is(err, ErrNotFound).
	ErrDeleted = fmt.Errorf("%w: deleted", ErrNotFound)

	// ErrSeparated is returned by Add once the buffer has been
	// separated; a separated buffer accepts no further writes.
	ErrSeparated = errors.New("lsmgo: memtable already separated")
)
