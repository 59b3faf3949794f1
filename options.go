package lsmgo

import (
	"github.com/hupe1980/lsmgo/internal/resource"
)

type options struct {
	comparator     Comparator
	logger         *Logger
	controller     *resource.Controller
	arenaChunkSize int
}

// Option configures MemTable construction.
type Option func(*options)

// WithComparator sets the user-key comparator.
//
// If nil is passed, BytewiseComparator is used.
func WithComparator(c Comparator) Option {
	return func(o *options) {
		if c == nil {
			c = BytewiseComparator()
		}
		o.comparator = c
	}
}

// WithLogger sets the logger. The default discards everything.
func WithLogger(l *Logger) Option {
	return func(o *options) {
		if l == nil {
			l = NoopLogger()
		}
		o.logger = l
	}
}

// WithMemoryLimit caps the memory the buffer's arena may claim, in
// bytes. When the cap is hit, Add fails with an allocation error.
func WithMemoryLimit(limitBytes int64) Option {
	return func(o *options) {
		o.controller = resource.NewController(resource.Config{
			MemoryLimitBytes: limitBytes,
		})
	}
}

// WithArenaChunkSize sets the arena chunk size in bytes. Mostly useful
// in tests; the default of 1 MiB is right for production buffers.
func WithArenaChunkSize(n int) Option {
	return func(o *options) {
		o.arenaChunkSize = n
	}
}
