package pmem

import (
	"errors"
	"sync"

	"github.com/rs/zerolog/log"

	"nvmenv/internal/arena"
)

// regionAlignment keeps every region on its own cache lines.
const regionAlignment = 64

// Heap is a volatile allocator: objects live in one anonymous mapping for
// the life of the process. It stands in for a persistent-memory device in
// tests and on machines without one.
type Heap struct {
	mu      sync.Mutex
	arena   *arena.Arena
	nextID  ObjectID
	objects map[string]*heapObject
	ids     map[ObjectID]*heapObject
	closed  bool
}

type heapObject struct {
	info Info
	data []byte
}

var _ Allocator = (*Heap)(nil)

// NewHeap reserves `size` bytes of address space up front. Allocations that
// no longer fit in it are served from the Go heap.
func NewHeap(size int) *Heap {
	return &Heap{
		arena:   arena.New(uint(size)),
		nextID:  1,
		objects: make(map[string]*heapObject),
		ids:     make(map[ObjectID]*heapObject),
	}
}

func (h *Heap) Alloc(name string, size int) ([]byte, ObjectID, error) {
	if err := validate(name, size); err != nil {
		return nil, 0, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, 0, ErrClosed
	}
	if old, ok := h.objects[name]; ok {
		h.removeLocked(old)
	}

	var data []byte
	offset, err := h.arena.Allocate(uint(size), regionAlignment)
	if errors.Is(err, arena.ErrArenaFull) {
		log.Debug().Str("name", name).Int("size", size).Msg("heap arena full, allocating region from go heap")
		data = make([]byte, size)
	} else {
		// A reset arena may hand back dirty memory.
		data = h.arena.GetBytes(offset, uint(size))
		clear(data)
	}

	obj := &heapObject{
		info: Info{ID: h.nextID, Name: name, Capacity: size},
		data: data,
	}
	h.nextID++
	h.objects[name] = obj
	h.ids[obj.info.ID] = obj
	return data, obj.info.ID, nil
}

func (h *Heap) Open(name string) ([]byte, Info, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, Info{}, ErrClosed
	}
	obj, ok := h.objects[name]
	if !ok {
		return nil, Info{}, ErrNotFound
	}
	return obj.data, obj.info, nil
}

func (h *Heap) Commit(id ObjectID, size int) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	obj, ok := h.ids[id]
	if !ok {
		return ErrNotFound
	}
	if size < 0 {
		return ErrInvalidArgument
	}
	if size > obj.info.Capacity {
		return ErrCapacityExceeded
	}
	if size > obj.info.Committed {
		obj.info.Committed = size
	}
	return nil
}

func (h *Heap) Stat(name string) (Info, error) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return Info{}, ErrClosed
	}
	obj, ok := h.objects[name]
	if !ok {
		return Info{}, ErrNotFound
	}
	return obj.info, nil
}

func (h *Heap) Rename(oldName, newName string) error {
	if newName == "" {
		return ErrInvalidArgument
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	obj, ok := h.objects[oldName]
	if !ok {
		return ErrNotFound
	}
	if oldName == newName {
		return nil
	}
	if target, ok := h.objects[newName]; ok {
		h.removeLocked(target)
	}
	delete(h.objects, oldName)
	obj.info.Name = newName
	h.objects[newName] = obj
	return nil
}

func (h *Heap) Delete(name string) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return ErrClosed
	}
	obj, ok := h.objects[name]
	if !ok {
		return ErrNotFound
	}
	h.removeLocked(obj)
	return nil
}

// removeLocked forgets obj. Its bytes stay in the arena, so slices already
// handed out remain readable.
func (h *Heap) removeLocked(obj *heapObject) {
	delete(h.objects, obj.info.Name)
	delete(h.ids, obj.info.ID)
}

func (h *Heap) Names() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return sortedNames(h.objects)
}

// Close releases the arena. Every region handed out becomes invalid.
func (h *Heap) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	h.closed = true
	h.objects = map[string]*heapObject{}
	h.ids = map[ObjectID]*heapObject{}
	return h.arena.Close()
}
