package env

import (
	"nvmenv/internal/limiter"
	"nvmenv/pkg/pmem"
	"nvmenv/pkg/route"
)

type Option func(*Env)

// WithAllocator routes persistent-memory files to a.
func WithAllocator(a pmem.Allocator) Option {
	return func(e *Env) {
		e.alloc = a
		e.allocSet = true
	}
}

// WithoutPersistentMemory sends every file to the filesystem.
func WithoutPersistentMemory() Option {
	return func(e *Env) {
		e.alloc = nil
		e.allocSet = true
	}
}

// WithPolicy replaces the routing policy.
func WithPolicy(p route.Policy) Option {
	return func(e *Env) {
		e.policy = p
	}
}

// WithMmapLimit gives the environment its own bound on concurrent
// read-only mappings of filesystem files instead of the process-wide one.
func WithMmapLimit(n int) Option {
	return func(e *Env) {
		e.mmaps = limiter.New(n)
	}
}

// WithRegionSize sets the capacity allocated for every new persistent
// memory file.
func WithRegionSize(n int) Option {
	return func(e *Env) {
		if n > 0 {
			e.regionSize = n
		}
	}
}

// WithDirSync replaces the directory fsync used when a manifest is synced
// or renamed into place.
func WithDirSync(fn func(dir string) error) Option {
	return func(e *Env) {
		if fn != nil {
			e.syncDir = fn
		}
	}
}

// WithTestDirectory sets the directory returned by TestDirectory.
func WithTestDirectory(dir string) Option {
	return func(e *Env) {
		e.testDir = dir
	}
}
