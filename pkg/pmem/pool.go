package pmem

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/rs/zerolog/log"

	"nvmenv/internal/mmap"
)

const objectSuffix = ".obj"

// Pool emulates a persistent-memory device on a directory: every object is
// one file whose region is mapped shared into the process, the way a DAX
// mount exposes pmem. Commit syncs the new bytes of the mapping and then
// rewrites the object's header with the committed length.
type Pool struct {
	dir string

	mu      sync.RWMutex
	nextID  ObjectID
	objects map[string]*poolObject
	ids     map[ObjectID]*poolObject
	// Mappings of deleted or replaced objects stay live until Close so
	// readers still holding them don't fault.
	retired [][]byte
	closed  bool
}

type poolObject struct {
	// mu serializes commits and header rewrites of this object only.
	mu     sync.Mutex
	info   Info
	path   string
	data   []byte
	header *headerWriter
}

var _ Allocator = (*Pool)(nil)

// OpenPool loads every object under dir, creating the directory if needed.
func OpenPool(dir string) (*Pool, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create pool directory: %w", err)
	}
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read pool directory: %w", err)
	}

	p := &Pool{
		dir:     dir,
		nextID:  1,
		objects: make(map[string]*poolObject),
		ids:     make(map[ObjectID]*poolObject),
	}
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), objectSuffix) {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		h, err := readHeader(path)
		if err != nil {
			_ = p.Close()
			return nil, fmt.Errorf("failed to load %s: %w", path, err)
		}
		if prev, ok := p.objects[h.name]; ok {
			// A crash between creating a replacement and removing the
			// old one leaves both; the newer id wins.
			if prev.info.ID > h.id {
				log.Warn().Str("name", h.name).Str("path", path).Msg("dropping stale duplicate object")
				_ = os.Remove(path)
				continue
			}
			log.Warn().Str("name", h.name).Str("path", prev.path).Msg("dropping stale duplicate object")
			p.forgetLocked(prev)
			_ = os.Remove(prev.path)
		}

		obj := &poolObject{
			info: Info{
				ID:        h.id,
				Name:      h.name,
				Capacity:  int(h.capacity),
				Committed: int(h.committed),
			},
			path: path,
		}
		p.objects[h.name] = obj
		p.ids[h.id] = obj
		if h.id >= p.nextID {
			p.nextID = h.id + 1
		}
	}

	log.Debug().Str("dir", dir).Int("objects", len(p.objects)).Msg("opened pmem pool")
	return p, nil
}

func (p *Pool) Dir() string {
	return p.dir
}

func (p *Pool) Alloc(name string, size int) ([]byte, ObjectID, error) {
	if err := validate(name, size); err != nil {
		return nil, 0, err
	}
	if len(name) > MaxNameLen {
		return nil, 0, fmt.Errorf("%w: name longer than %d bytes", ErrInvalidArgument, MaxNameLen)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil, 0, ErrClosed
	}

	id := p.nextID
	p.nextID++
	obj := &poolObject{
		info: Info{ID: id, Name: name, Capacity: size},
		path: filepath.Join(p.dir, fmt.Sprintf("%08x%s", uint32(id), objectSuffix)),
	}
	if err := obj.create(); err != nil {
		_ = os.Remove(obj.path)
		return nil, 0, err
	}

	if old, ok := p.objects[name]; ok {
		p.removeLocked(old)
	}
	p.objects[name] = obj
	p.ids[id] = obj

	if err := syncDir(p.dir); err != nil {
		return nil, 0, err
	}
	log.Debug().Str("name", name).Uint32("id", uint32(id)).Int("capacity", size).Msg("allocated pmem object")
	return obj.data, id, nil
}

// create lays out a zero-filled object file, maps its region and writes the
// initial header.
func (o *poolObject) create() error {
	f, err := os.OpenFile(o.path, os.O_RDWR|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	if err = f.Truncate(int64(headerSize + o.info.Capacity)); err != nil {
		return err
	}
	data, err := mmap.File(f, int64(headerSize), o.info.Capacity, true)
	if err != nil {
		return err
	}
	hw, err := openHeaderWriter(o.path)
	if err != nil {
		_ = mmap.Free(data)
		return err
	}
	if err = hw.Write(o.headerLocked()); err != nil {
		_ = hw.Close()
		_ = mmap.Free(data)
		return err
	}
	o.data = data
	o.header = hw
	return nil
}

// mapLocked maps the region of an object loaded from disk on first use.
func (o *poolObject) mapLocked() error {
	if o.data != nil {
		return nil
	}
	f, err := os.OpenFile(o.path, os.O_RDWR, 0644)
	if err != nil {
		return err
	}
	defer f.Close()

	data, err := mmap.File(f, int64(headerSize), o.info.Capacity, true)
	if err != nil {
		return err
	}
	hw, err := openHeaderWriter(o.path)
	if err != nil {
		_ = mmap.Free(data)
		return err
	}
	o.data = data
	o.header = hw
	return nil
}

func (o *poolObject) headerLocked() header {
	return header{
		id:        o.info.ID,
		capacity:  uint64(o.info.Capacity),
		committed: uint64(o.info.Committed),
		name:      o.info.Name,
	}
}

func (p *Pool) lookup(name string) (*poolObject, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		return nil, ErrClosed
	}
	obj, ok := p.objects[name]
	if !ok {
		return nil, ErrNotFound
	}
	return obj, nil
}

func (p *Pool) Open(name string) ([]byte, Info, error) {
	obj, err := p.lookup(name)
	if err != nil {
		return nil, Info{}, err
	}

	obj.mu.Lock()
	defer obj.mu.Unlock()
	if err := obj.mapLocked(); err != nil {
		return nil, Info{}, fmt.Errorf("failed to map %s: %w", name, err)
	}
	log.Debug().Str("name", name).Int("committed", obj.info.Committed).Msg("opened pmem object")
	return obj.data, obj.info, nil
}

func (p *Pool) Commit(id ObjectID, size int) error {
	p.mu.RLock()
	obj, ok := p.ids[id]
	closed := p.closed
	p.mu.RUnlock()
	if closed {
		return ErrClosed
	}
	if !ok {
		return ErrNotFound
	}
	if size < 0 {
		return ErrInvalidArgument
	}

	obj.mu.Lock()
	defer obj.mu.Unlock()
	if size > obj.info.Capacity {
		return ErrCapacityExceeded
	}
	if size <= obj.info.Committed {
		return nil
	}
	if err := obj.mapLocked(); err != nil {
		return err
	}
	if err := mmap.Sync(obj.data, obj.info.Committed, size); err != nil {
		return fmt.Errorf("failed to sync region: %w", err)
	}

	prev := obj.info.Committed
	obj.info.Committed = size
	if err := obj.header.Write(obj.headerLocked()); err != nil {
		obj.info.Committed = prev
		return fmt.Errorf("failed to write header: %w", err)
	}
	return nil
}

func (p *Pool) Stat(name string) (Info, error) {
	obj, err := p.lookup(name)
	if err != nil {
		return Info{}, err
	}
	obj.mu.Lock()
	defer obj.mu.Unlock()
	return obj.info, nil
}

func (p *Pool) Rename(oldName, newName string) error {
	if newName == "" {
		return ErrInvalidArgument
	}
	if len(newName) > MaxNameLen {
		return fmt.Errorf("%w: name longer than %d bytes", ErrInvalidArgument, MaxNameLen)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	obj, ok := p.objects[oldName]
	if !ok {
		return ErrNotFound
	}
	if oldName == newName {
		return nil
	}

	obj.mu.Lock()
	err := obj.mapLocked()
	if err == nil {
		obj.info.Name = newName
		if err = obj.header.Write(obj.headerLocked()); err != nil {
			obj.info.Name = oldName
		}
	}
	obj.mu.Unlock()
	if err != nil {
		return fmt.Errorf("failed to rename %s: %w", oldName, err)
	}

	delete(p.objects, oldName)
	if target, ok := p.objects[newName]; ok {
		p.removeLocked(target)
	}
	p.objects[newName] = obj
	return nil
}

func (p *Pool) Delete(name string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return ErrClosed
	}
	obj, ok := p.objects[name]
	if !ok {
		return ErrNotFound
	}
	return p.removeLocked(obj)
}

// removeLocked unlinks the object file and retires its mapping.
func (p *Pool) removeLocked(obj *poolObject) error {
	p.forgetLocked(obj)

	obj.mu.Lock()
	defer obj.mu.Unlock()

	var errs []error
	if obj.header != nil {
		if err := obj.header.Close(); err != nil {
			errs = append(errs, err)
		}
		obj.header = nil
	}
	if obj.data != nil {
		p.retired = append(p.retired, obj.data)
		obj.data = nil
	}
	if err := os.Remove(obj.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (p *Pool) forgetLocked(obj *poolObject) {
	if p.objects[obj.info.Name] == obj {
		delete(p.objects, obj.info.Name)
	}
	delete(p.ids, obj.info.ID)
}

func (p *Pool) Names() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return sortedNames(p.objects)
}

// Close unmaps every region and closes every header. The files stay on disk
// for the next OpenPool.
func (p *Pool) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.closed {
		return nil
	}
	p.closed = true

	var errs []error
	for _, obj := range p.ids {
		obj.mu.Lock()
		if obj.header != nil {
			if err := obj.header.Close(); err != nil {
				errs = append(errs, err)
			}
		}
		if obj.data != nil {
			if err := mmap.Free(obj.data); err != nil {
				errs = append(errs, err)
			}
		}
		obj.header, obj.data = nil, nil
		obj.mu.Unlock()
	}
	for _, data := range p.retired {
		if err := mmap.Free(data); err != nil {
			errs = append(errs, err)
		}
	}
	p.retired = nil

	if len(errs) > 0 {
		return fmt.Errorf("failed to close pool: %w", errors.Join(errs...))
	}
	return nil
}

func syncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}
