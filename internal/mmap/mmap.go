package mmap

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// New allocates a large contiguous chunk of memory using the OS syscall mmap.
// This is manually managed memory that is not garbage collected by the Go
// runtime. You must call Free with the buffer when finished. Note that the
// size of the returned buffer may not be the equal to `size` because the OS
// will round the byte length up to a multiple of the system's page size.
func New(size int) ([]byte, error) {
	if size < 1 {
		return nil, fmt.Errorf("mmap: invalid size; size must be greater than 0: %d", size)
	}

	// Set `fd` to -1 because we are using `MAP_ANON`. This indicates that
	// there is no backing disk file.
	data, err := unix.Mmap(-1, 0, size,
		unix.PROT_READ|unix.PROT_WRITE,
		unix.MAP_ANON|unix.MAP_PRIVATE,
	)
	if err != nil {
		return nil, err
	}

	return data, nil
}

// File maps `size` bytes of `f` starting at `offset`. The mapping is shared,
// so writes through a writable mapping reach the file. `offset` must be a
// multiple of the page size. The mapping outlives the descriptor; closing
// `f` afterwards is fine.
func File(f *os.File, offset int64, size int, writable bool) ([]byte, error) {
	if size < 1 {
		return nil, fmt.Errorf("mmap: invalid size; size must be greater than 0: %d", size)
	}
	if offset%int64(os.Getpagesize()) != 0 {
		return nil, fmt.Errorf("mmap: offset %d is not page aligned", offset)
	}

	prot := unix.PROT_READ
	if writable {
		prot |= unix.PROT_WRITE
	}
	return unix.Mmap(int(f.Fd()), offset, size, prot, unix.MAP_SHARED)
}

// Sync flushes the pages covering data[start:end] of a shared mapping to
// the backing file and waits for completion.
func Sync(data []byte, start, end int) error {
	if start >= end {
		return nil
	}
	page := os.Getpagesize()
	start -= start % page
	return unix.Msync(data[start:end], unix.MS_SYNC)
}

func Free(data []byte) error {
	return unix.Munmap(data)
}
