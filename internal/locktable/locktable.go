package locktable

import "sync"

// Table is the set of file names this process holds an advisory lock on.
// fcntl locks are per process, so a second lock of the same file from
// this process would silently succeed without it.
type Table struct {
	mu     sync.Mutex
	locked map[string]struct{}
}

func New() *Table {
	return &Table{locked: make(map[string]struct{})}
}

// Insert adds name and reports whether it was absent.
func (t *Table) Insert(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.locked[name]; ok {
		return false
	}
	t.locked[name] = struct{}{}
	return true
}

func (t *Table) Remove(name string) {
	t.mu.Lock()
	delete(t.locked, name)
	t.mu.Unlock()
}

func (t *Table) Contains(name string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.locked[name]
	return ok
}
