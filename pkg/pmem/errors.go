package pmem

import (
	"errors"
	"fmt"
	"io/fs"
)

var (
	ErrNotFound         = fmt.Errorf("pmem: object not found: %w", fs.ErrNotExist)
	ErrCapacityExceeded = errors.New("pmem: write exceeds region capacity")
	ErrOutOfRange       = errors.New("pmem: offset beyond committed length")
	ErrInvalidArgument  = errors.New("pmem: invalid argument")
	ErrCorrupt          = errors.New("pmem: corrupt object header")
	ErrClosed           = errors.New("pmem: allocator closed")
)
