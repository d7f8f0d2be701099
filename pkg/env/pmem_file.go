package env

import (
	"sync"

	"nvmenv/pkg/pmem"
)

// openRegion views the committed bytes of an existing object.
func (e *Env) openRegion(name string) (*pmem.Region, error) {
	buf, info, err := e.alloc.Open(name)
	if err != nil {
		return nil, err
	}
	return pmem.NewRegion(info.ID, buf, info.Committed)
}

type pmemSequentialFile struct {
	name   string
	region *pmem.Region

	// mu guards offset.
	mu     sync.Mutex
	offset int
	closer
}

// Read returns a view into the region, never a copy; scratch is unused.
func (f *pmemSequentialFile) Read(n int, _ []byte) ([]byte, error) {
	if f.isClosed() {
		return nil, ioError("read", f.name, ErrClosed)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	data, err := f.region.Slice(f.offset, n)
	if err != nil {
		return nil, ioError("read", f.name, err)
	}
	f.offset += len(data)
	return data, nil
}

func (f *pmemSequentialFile) Skip(n int64) error {
	if f.isClosed() {
		return ioError("skip", f.name, ErrClosed)
	}
	if n < 0 {
		return ioError("skip", f.name, ErrInvalidArgument)
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if remaining := int64(f.region.Len() - f.offset); n > remaining {
		n = remaining
	}
	f.offset += int(n)
	return nil
}

func (f *pmemSequentialFile) Close() error {
	return f.closer.close(func() error { return nil })
}

type pmemRandomAccessFile struct {
	name   string
	region *pmem.Region
	closer
}

func (f *pmemRandomAccessFile) Read(offset int64, n int, _ []byte) ([]byte, error) {
	if f.isClosed() {
		return nil, ioError("read", f.name, ErrClosed)
	}
	if offset > int64(f.region.Len()) {
		return nil, ioError("read", f.name, ErrOutOfRange)
	}
	data, err := f.region.Slice(int(offset), n)
	if err != nil {
		return nil, ioError("read", f.name, err)
	}
	return data, nil
}

func (f *pmemRandomAccessFile) Close() error {
	return f.closer.close(func() error { return nil })
}

// pmemWritableFile appends into a fixed-capacity object. Every append is
// committed, so a reader opened afterwards sees it without a Flush.
type pmemWritableFile struct {
	env    *Env
	name   string
	region *pmem.Region

	// appendMu serializes appends and their commits. flushMu serializes
	// commits issued by Flush, which don't need to wait on an append.
	appendMu sync.Mutex
	flushMu  sync.Mutex
	closer
}

func (f *pmemWritableFile) Append(data []byte) error {
	f.appendMu.Lock()
	defer f.appendMu.Unlock()
	if f.isClosed() {
		return ioError("append", f.name, ErrClosed)
	}
	end, err := f.region.Append(data)
	if err != nil {
		return ioError("append", f.name, err)
	}
	return ioError("append", f.name, f.env.alloc.Commit(f.region.ID(), end))
}

func (f *pmemWritableFile) Flush() error {
	f.flushMu.Lock()
	defer f.flushMu.Unlock()
	if f.isClosed() {
		return ioError("flush", f.name, ErrClosed)
	}
	return ioError("flush", f.name, f.env.alloc.Commit(f.region.ID(), f.region.Len()))
}

// Sync has no data to push; commits are already durable. A manifest still
// gets its directory synced.
func (f *pmemWritableFile) Sync() error {
	if f.isClosed() {
		return ioError("sync", f.name, ErrClosed)
	}
	return f.env.syncDirIfManifest(f.name)
}

func (f *pmemWritableFile) Close() error {
	f.appendMu.Lock()
	defer f.appendMu.Unlock()
	return f.closer.close(func() error { return nil })
}
