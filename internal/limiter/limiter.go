package limiter

import (
	"sync"

	"nvmenv/internal/arch"
)

// Limiter bounds the number of live read-only file mappings so very large
// databases don't run out of virtual address space.
type Limiter struct {
	mu      sync.Mutex
	allowed arch.AtomicInt
}

// New returns a limiter with `n` slots. A negative `n` is treated as zero.
func New(n int) *Limiter {
	if n < 0 {
		n = 0
	}
	l := &Limiter{}
	l.allowed.Store(arch.IntToArchSize(n))
	return l
}

// Acquire takes a slot if one is available. The unlocked load keeps the
// common exhausted case off the mutex.
func (l *Limiter) Acquire() bool {
	if l.allowed.Load() <= 0 {
		return false
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowed.Load() <= 0 {
		return false
	}
	l.allowed.Add(-1)
	return true
}

// Release returns a slot taken by a successful Acquire. It must be called
// exactly once per slot.
func (l *Limiter) Release() {
	l.mu.Lock()
	l.allowed.Add(1)
	l.mu.Unlock()
}

// Available reports the free slot count.
func (l *Limiter) Available() int {
	return int(l.allowed.Load())
}
