package env

import (
	"sync"
	"sync/atomic"
)

// SequentialFile reads a file front to back. It is not safe for concurrent
// use.
type SequentialFile interface {
	// Read returns up to n bytes. A short result with a nil error means the
	// end of the file was reached. The result may alias scratch or the
	// backend's own memory and is only valid until the next call.
	Read(n int, scratch []byte) ([]byte, error)

	// Skip moves the read position forward by n bytes.
	Skip(n int64) error

	Close() error
}

// RandomAccessFile serves positioned reads and is safe for concurrent use.
type RandomAccessFile interface {
	// Read returns up to n bytes at offset. A range crossing the end of the
	// file is clamped; an offset past the end is ErrOutOfRange. The result
	// may alias scratch or the backend's own memory.
	Read(offset int64, n int, scratch []byte) ([]byte, error)

	Close() error
}

// WritableFile appends to a new file.
type WritableFile interface {
	Append(data []byte) error
	Flush() error
	Sync() error
	Close() error
}

// closer releases a file's resource exactly once and remembers the result.
type closer struct {
	closed atomic.Bool
	once   sync.Once
	err    error
}

func (c *closer) isClosed() bool {
	return c.closed.Load()
}

func (c *closer) close(release func() error) error {
	c.once.Do(func() {
		c.closed.Store(true)
		c.err = release()
	})
	return c.err
}

// span validates a read of n bytes at offset against a file of size bytes
// and returns how many bytes it covers.
func span(offset int64, n int, size int64) (int, error) {
	if offset < 0 || n < 0 {
		return 0, ErrInvalidArgument
	}
	if offset > size {
		return 0, ErrOutOfRange
	}
	if int64(n) > size-offset {
		n = int(size - offset)
	}
	return n, nil
}

func scratchOf(scratch []byte, n int) []byte {
	if cap(scratch) < n {
		return make([]byte, n)
	}
	return scratch[:n]
}
