package env

import (
	"bufio"
	"os"

	"github.com/rs/zerolog/log"

	"nvmenv/internal/mmap"
	"nvmenv/pkg/pmem"
	"nvmenv/pkg/route"
)

const writeBufferSize = 64 << 10

// NewSequentialFile opens an existing file for reading front to back.
func (e *Env) NewSequentialFile(name string) (SequentialFile, error) {
	if e.backend(name) == route.PersistentMemory {
		region, err := e.openRegion(name)
		if err != nil {
			return nil, ioError("open", name, err)
		}
		return &pmemSequentialFile{name: name, region: region}, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, ioError("open", name, err)
	}
	return &posixSequentialFile{name: name, file: f}, nil
}

// NewRandomAccessFile opens an existing file for positioned reads. A
// filesystem file is mapped read-only while mapping slots remain and read
// with pread otherwise.
func (e *Env) NewRandomAccessFile(name string) (RandomAccessFile, error) {
	if e.backend(name) == route.PersistentMemory {
		region, err := e.openRegion(name)
		if err != nil {
			return nil, ioError("open", name, err)
		}
		return &pmemRandomAccessFile{name: name, region: region}, nil
	}

	f, err := os.Open(name)
	if err != nil {
		return nil, ioError("open", name, err)
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close()
		return nil, ioError("stat", name, err)
	}

	size := info.Size()
	if size > 0 && int64(int(size)) == size && e.mmaps.Acquire() {
		data, err := mmap.File(f, 0, int(size), false)
		if err == nil {
			_ = f.Close()
			return &mmapRandomAccessFile{name: name, data: data, limiter: e.mmaps}, nil
		}
		e.mmaps.Release()
		log.Warn().Err(err).Str("file", name).Msg("mmap failed, falling back to pread")
	}
	return &posixRandomAccessFile{name: name, file: f, size: size}, nil
}

// NewWritableFile creates name, replacing any existing file. A
// persistent-memory file gets a fixed capacity set by WithRegionSize.
func (e *Env) NewWritableFile(name string) (WritableFile, error) {
	if e.backend(name) == route.PersistentMemory {
		buf, id, err := e.alloc.Alloc(name, e.regionSize)
		if err != nil {
			return nil, ioError("create", name, err)
		}
		region, err := pmem.NewRegion(id, buf, 0)
		if err != nil {
			return nil, ioError("create", name, err)
		}
		log.Debug().Str("file", name).Int("capacity", e.regionSize).Msg("allocated persistent memory file")
		return &pmemWritableFile{env: e, name: name, region: region}, nil
	}

	f, err := os.OpenFile(name, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, ioError("create", name, err)
	}
	return &posixWritableFile{
		env:  e,
		name: name,
		file: f,
		buf:  bufio.NewWriterSize(f, writeBufferSize),
	}, nil
}
