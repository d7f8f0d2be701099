package env

import (
	"errors"
	"fmt"
	"io/fs"

	"nvmenv/pkg/pmem"
)

var (
	ErrNotFound         = errors.New("env: not found")
	ErrAlreadyLocked    = errors.New("env: lock already held by process")
	ErrInvalidArgument  = errors.New("env: invalid argument")
	ErrClosed           = errors.New("env: file already closed")
	ErrOutOfRange       = pmem.ErrOutOfRange
	ErrCapacityExceeded = pmem.ErrCapacityExceeded
)

// IOError is returned by every failing file operation. It carries the
// operation, the file name and the underlying cause.
type IOError struct {
	Op   string
	Name string
	Err  error
}

func (e *IOError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Name, e.Err)
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// Is makes missing files from either backend match ErrNotFound, and
// allocator argument errors match ErrInvalidArgument.
func (e *IOError) Is(target error) bool {
	switch target {
	case ErrNotFound:
		return errors.Is(e.Err, fs.ErrNotExist)
	case ErrInvalidArgument:
		return errors.Is(e.Err, pmem.ErrInvalidArgument)
	}
	return false
}

func ioError(op, name string, err error) error {
	if err == nil {
		return nil
	}
	return &IOError{Op: op, Name: name, Err: err}
}
