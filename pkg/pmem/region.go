package pmem

import (
	"nvmenv/internal/arch"
)

// Region is a bounds-checked view of one allocator object: the full capacity
// plus the number of bytes written so far. Every access is checked against
// the written length, so a read can never see slack or foreign memory.
//
// Append must be serialized by the caller; Slice and Len are safe to call
// concurrently with it.
type Region struct {
	id      ObjectID
	buf     []byte
	written arch.AtomicInt
}

// NewRegion wraps buf with `written` bytes already valid.
func NewRegion(id ObjectID, buf []byte, written int) (*Region, error) {
	if written < 0 || written > len(buf) {
		return nil, ErrOutOfRange
	}
	r := &Region{id: id, buf: buf}
	r.written.Store(arch.IntToArchSize(written))
	return r, nil
}

func (r *Region) ID() ObjectID {
	return r.id
}

func (r *Region) Cap() int {
	return len(r.buf)
}

func (r *Region) Len() int {
	return int(r.written.Load())
}

// Append copies p after the written bytes and returns the new length. Nothing
// is copied when p does not fit.
func (r *Region) Append(p []byte) (int, error) {
	end := r.Len()
	if len(p) > len(r.buf)-end {
		return end, ErrCapacityExceeded
	}
	copy(r.buf[end:], p)
	end += len(p)
	r.written.Store(arch.IntToArchSize(end))
	return end, nil
}

// Slice returns up to n written bytes starting at off, aliasing the region.
// A range that crosses the written end is clamped; an offset past it is an
// error.
func (r *Region) Slice(off, n int) ([]byte, error) {
	if off < 0 || n < 0 {
		return nil, ErrInvalidArgument
	}
	end := r.Len()
	if off > end {
		return nil, ErrOutOfRange
	}
	if n > end-off {
		n = end - off
	}
	return r.buf[off : off+n : off+n], nil
}
