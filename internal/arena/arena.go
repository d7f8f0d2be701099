package arena

import (
	"errors"
	"sync"

	"nvmenv/internal/arch"
	"nvmenv/internal/mmap"
)

var ErrArenaFull = errors.New("allocation failed because arena is full")

// Arena is a lock-free bump allocator over one large buffer. Space is only
// reclaimed by Reset.
type Arena struct {
	position arch.AtomicUint
	buffer   []byte
	mmapped  bool
	closed   sync.Once
}

// New allocates an arena of `size` bytes. The buffer comes from an anonymous
// mapping when the OS allows it and from the Go heap otherwise.
func New(size uint) *Arena {
	a := &Arena{
		mmapped: true,
	}

	// Position/offset 0 is reserved as the arena's nil offset
	a.position.Store(1)

	buf, err := mmap.New(int(size))
	if err != nil {
		buf = make([]byte, size)
		a.mmapped = false
	}
	a.buffer = buf

	return a
}

// Allocate reserves `size` bytes aligned to `alignment`, which must be a
// power of two, and returns the offset of the reservation.
func (a *Arena) Allocate(size, alignment uint) (offset uint, err error) {
	// Verify that the arena isn't already full
	position := uint(a.position.Load())
	if position > uint(len(a.buffer)) {
		return 0, ErrArenaFull
	}

	// Pad the allocation with enough bytes to ensure the requested alignment
	padded := size + alignment - 1

	// Check if arena is full after allocating
	position = uint(a.position.Add(arch.UintToArchSize(padded)))
	if position > uint(len(a.buffer)) {
		return 0, ErrArenaFull
	}

	// Return the aligned offset
	offset = (position - padded + alignment - 1) & ^(alignment - 1)
	return offset, nil
}

// GetBytes returns the reservation at `offset`. The slice capacity equals
// `size` so a caller can't write past the end of its allocation.
func (a *Arena) GetBytes(offset uint, size uint) []byte {
	if offset == 0 {
		return nil
	}
	return a.buffer[offset : offset+size : offset+size]
}

func (a *Arena) Len() uint {
	s := uint(a.position.Load())
	if s > uint(len(a.buffer)) {
		s = uint(len(a.buffer))
	}
	return s - 1
}

func (a *Arena) Cap() uint {
	return uint(len(a.buffer)) - 1
}

func (a *Arena) Reset() {
	a.position.Store(1)
}

func (a *Arena) Close() error {
	var err error
	a.closed.Do(func() {
		if a.mmapped {
			err = mmap.Free(a.buffer)
		}
		a.buffer = nil
	})
	return err
}
