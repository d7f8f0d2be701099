package env

import (
	"bufio"
	"errors"
	"io"
	"os"
	"sync"

	"golang.org/x/sys/unix"

	"nvmenv/internal/limiter"
	"nvmenv/internal/mmap"
)

type posixSequentialFile struct {
	name string
	file *os.File
	closer
}

func (f *posixSequentialFile) Read(n int, scratch []byte) ([]byte, error) {
	if f.isClosed() {
		return nil, ioError("read", f.name, ErrClosed)
	}
	if n < 0 {
		return nil, ioError("read", f.name, ErrInvalidArgument)
	}
	buf := scratchOf(scratch, n)
	read, err := io.ReadFull(f.file, buf)
	if err != nil && !errors.Is(err, io.EOF) && !errors.Is(err, io.ErrUnexpectedEOF) {
		return nil, ioError("read", f.name, err)
	}
	return buf[:read], nil
}

func (f *posixSequentialFile) Skip(n int64) error {
	if f.isClosed() {
		return ioError("skip", f.name, ErrClosed)
	}
	if n < 0 {
		return ioError("skip", f.name, ErrInvalidArgument)
	}
	_, err := f.file.Seek(n, io.SeekCurrent)
	return ioError("skip", f.name, err)
}

func (f *posixSequentialFile) Close() error {
	return ioError("close", f.name, f.closer.close(f.file.Close))
}

// posixRandomAccessFile reads with pread. The size is taken at open so the
// bounds match those of a mapped file.
type posixRandomAccessFile struct {
	name string
	file *os.File
	size int64
	closer
}

func (f *posixRandomAccessFile) Read(offset int64, n int, scratch []byte) ([]byte, error) {
	if f.isClosed() {
		return nil, ioError("read", f.name, ErrClosed)
	}
	n, err := span(offset, n, f.size)
	if err != nil {
		return nil, ioError("read", f.name, err)
	}
	buf := scratchOf(scratch, n)
	read, err := f.file.ReadAt(buf, offset)
	if err != nil && !errors.Is(err, io.EOF) {
		return nil, ioError("read", f.name, err)
	}
	return buf[:read], nil
}

func (f *posixRandomAccessFile) Close() error {
	return ioError("close", f.name, f.closer.close(f.file.Close))
}

// mmapRandomAccessFile serves reads straight out of a read-only mapping and
// gives its limiter slot back on Close.
type mmapRandomAccessFile struct {
	name    string
	data    []byte
	limiter *limiter.Limiter

	// mu keeps Close from unmapping under a running Read.
	mu sync.RWMutex
	closer
}

func (f *mmapRandomAccessFile) Read(offset int64, n int, _ []byte) ([]byte, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if f.isClosed() {
		return nil, ioError("read", f.name, ErrClosed)
	}
	n, err := span(offset, n, int64(len(f.data)))
	if err != nil {
		return nil, ioError("read", f.name, err)
	}
	return f.data[offset : offset+int64(n) : offset+int64(n)], nil
}

func (f *mmapRandomAccessFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ioError("close", f.name, f.closer.close(func() error {
		defer f.limiter.Release()
		err := mmap.Free(f.data)
		f.data = nil
		return err
	}))
}

type posixWritableFile struct {
	env  *Env
	name string
	file *os.File
	buf  *bufio.Writer

	mu sync.Mutex
	closer
}

func (f *posixWritableFile) Append(data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.isClosed() {
		return ioError("append", f.name, ErrClosed)
	}
	_, err := f.buf.Write(data)
	return ioError("append", f.name, err)
}

func (f *posixWritableFile) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.isClosed() {
		return ioError("flush", f.name, ErrClosed)
	}
	return ioError("flush", f.name, f.buf.Flush())
}

// Sync makes appended data durable. A manifest also gets its directory
// synced so the file is reachable after a crash.
func (f *posixWritableFile) Sync() error {
	if err := f.env.syncDirIfManifest(f.name); err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.isClosed() {
		return ioError("sync", f.name, ErrClosed)
	}
	if err := f.buf.Flush(); err != nil {
		return ioError("sync", f.name, err)
	}
	return ioError("sync", f.name, unix.Fdatasync(int(f.file.Fd())))
}

func (f *posixWritableFile) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return ioError("close", f.name, f.closer.close(func() error {
		return errors.Join(f.buf.Flush(), f.file.Close())
	}))
}
