// Package pmem is the persistent-memory object store the environment writes
// its log, table and manifest files to. Objects are fixed-capacity byte
// regions addressed by name or by an allocator-assigned id; a commit makes
// a prefix of a region durable and visible to later opens.
package pmem

import "sort"

// ObjectID is assigned by the allocator. Zero is never a valid id.
type ObjectID uint32

// Info describes one object. Committed is the logical length: the bytes
// made durable by Commit, never the zero-filled slack after them.
type Info struct {
	ID        ObjectID
	Name      string
	Capacity  int
	Committed int
}

// Allocator is the capability set the environment consumes.
type Allocator interface {
	// Alloc creates a zero-filled object of `size` bytes, replacing any
	// existing object with the same name. The returned slice spans the
	// whole capacity and stays valid until the allocator is closed.
	Alloc(name string, size int) (base []byte, id ObjectID, err error)

	// Open returns the full region of an existing object along with its
	// committed length.
	Open(name string) (base []byte, info Info, err error)

	// Commit makes the first `size` bytes of the object durable. Commit
	// never shrinks an object; a size at or below the committed length is
	// a no-op.
	Commit(id ObjectID, size int) error

	Stat(name string) (Info, error)

	// Rename replaces any object already called newName.
	Rename(oldName, newName string) error

	Delete(name string) error

	// Names returns every object name in sorted order.
	Names() []string

	Close() error
}

func sortedNames[T any](objects map[string]T) []string {
	names := make([]string, 0, len(objects))
	for name := range objects {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func validate(name string, size int) error {
	if name == "" || size < 1 {
		return ErrInvalidArgument
	}
	return nil
}
