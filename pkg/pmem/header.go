package pmem

import (
	"encoding/binary"
	"fmt"
	"os"

	"github.com/cespare/xxhash/v2"
	"github.com/ncw/directio"
	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// Object file layout: one header block, then the region itself. The region
// starts on a page boundary so it can be mapped on its own, and the header
// is a whole number of direct I/O blocks.
//
//	0   magic      [4]byte
//	4   version    uint16
//	8   id         uint32
//	12  name len   uint16
//	16  capacity   uint64
//	24  committed  uint64
//	32  checksum   uint64  xxhash of [0,32) and the name
//	40  name
const (
	headerMagic   = "NVMO"
	headerVersion = 1
	headerFixed   = 40
)

var headerSize = max(directio.BlockSize, os.Getpagesize())

// MaxNameLen is the longest object name a Pool can store.
var MaxNameLen = headerSize - headerFixed

type header struct {
	id        ObjectID
	capacity  uint64
	committed uint64
	name      string
}

func (h header) encode(buf []byte) {
	clear(buf)
	copy(buf[0:4], headerMagic)
	binary.LittleEndian.PutUint16(buf[4:], headerVersion)
	binary.LittleEndian.PutUint32(buf[8:], uint32(h.id))
	binary.LittleEndian.PutUint16(buf[12:], uint16(len(h.name)))
	binary.LittleEndian.PutUint64(buf[16:], h.capacity)
	binary.LittleEndian.PutUint64(buf[24:], h.committed)
	copy(buf[headerFixed:], h.name)
	binary.LittleEndian.PutUint64(buf[32:], checksum(buf, len(h.name)))
}

func decodeHeader(buf []byte) (header, error) {
	if len(buf) < headerFixed || string(buf[0:4]) != headerMagic {
		return header{}, fmt.Errorf("%w: bad magic", ErrCorrupt)
	}
	if v := binary.LittleEndian.Uint16(buf[4:]); v != headerVersion {
		return header{}, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, v)
	}
	nameLen := int(binary.LittleEndian.Uint16(buf[12:]))
	if nameLen > len(buf)-headerFixed {
		return header{}, fmt.Errorf("%w: name length %d", ErrCorrupt, nameLen)
	}
	if binary.LittleEndian.Uint64(buf[32:]) != checksum(buf, nameLen) {
		return header{}, fmt.Errorf("%w: checksum mismatch", ErrCorrupt)
	}
	h := header{
		id:        ObjectID(binary.LittleEndian.Uint32(buf[8:])),
		capacity:  binary.LittleEndian.Uint64(buf[16:]),
		committed: binary.LittleEndian.Uint64(buf[24:]),
		name:      string(buf[headerFixed : headerFixed+nameLen]),
	}
	if h.id == 0 || h.committed > h.capacity {
		return header{}, fmt.Errorf("%w: id %d committed %d capacity %d", ErrCorrupt, h.id, h.committed, h.capacity)
	}
	return h, nil
}

func checksum(buf []byte, nameLen int) uint64 {
	d := xxhash.New()
	_, _ = d.Write(buf[:32])
	_, _ = d.Write(buf[headerFixed : headerFixed+nameLen])
	return d.Sum64()
}

// headerWriter rewrites the header block of one object file in place,
// bypassing the page cache when the filesystem supports direct I/O.
type headerWriter struct {
	file   *os.File
	block  []byte
	direct bool
}

func openHeaderWriter(path string) (*headerWriter, error) {
	direct := true
	file, err := directio.OpenFile(path, os.O_RDWR, 0644)
	if err != nil {
		// tmpfs and some overlay filesystems refuse O_DIRECT
		log.Warn().Err(err).Str("path", path).Msg("direct I/O not supported, falling back to synchronous writes")
		direct = false
		file, err = os.OpenFile(path, os.O_RDWR|os.O_SYNC, 0644)
		if err != nil {
			return nil, err
		}
	}

	return &headerWriter{
		file:   file,
		block:  directio.AlignedBlock(headerSize),
		direct: direct,
	}, nil
}

// Write replaces the header and returns once it is on stable storage.
func (w *headerWriter) Write(h header) error {
	h.encode(w.block)
	if _, err := w.file.WriteAt(w.block, 0); err != nil {
		return err
	}
	if w.direct {
		// O_DIRECT skips the page cache but not the device cache.
		return unix.Fdatasync(int(w.file.Fd()))
	}
	return nil
}

func (w *headerWriter) Close() error {
	return w.file.Close()
}

func readHeader(path string) (header, error) {
	f, err := os.Open(path)
	if err != nil {
		return header{}, err
	}
	defer f.Close()

	buf := make([]byte, headerSize)
	if _, err := f.ReadAt(buf, 0); err != nil {
		return header{}, fmt.Errorf("%w: %s: %v", ErrCorrupt, path, err)
	}
	return decodeHeader(buf)
}
