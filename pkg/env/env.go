// Package env gives a storage engine one file API over two backends: the
// regular filesystem and a persistent-memory object store. Which backend
// holds a file is decided from its name by a routing policy, once, every
// time the file is opened.
package env

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"nvmenv/internal/arch"
	"nvmenv/internal/config"
	"nvmenv/internal/limiter"
	"nvmenv/internal/locktable"
	"nvmenv/internal/logging"
	"nvmenv/internal/taskqueue"
	"nvmenv/pkg/pmem"
	"nvmenv/pkg/route"
)

// The lock table and the mapping limiter are shared by every Env in the
// process: fcntl locks and address space both belong to the process.
var (
	processLocks = locktable.New()
	processMmaps = limiter.New(arch.MaxMappings)
)

// Env is the entry point the engine opens, creates, renames, deletes and
// locks files through, and hands background work to. Unrelated files never
// contend on a shared lock.
type Env struct {
	// alloc is nil when persistent memory is disabled.
	alloc      pmem.Allocator
	allocSet   bool
	policy     route.Policy
	regionSize int
	testDir    string
	syncDir    func(dir string) error

	locks *locktable.Table
	mmaps *limiter.Limiter
	queue *taskqueue.Queue
}

// New builds an environment. Without WithAllocator, persistent-memory files
// go to a volatile heap.
func New(options ...Option) *Env {
	e := &Env{
		policy:     route.Default,
		regionSize: config.DefaultRegionSize,
		syncDir:    fsyncDir,
		locks:      processLocks,
		mmaps:      processMmaps,
		queue:      taskqueue.New(),
	}
	for _, option := range options {
		option(e)
	}
	if !e.allocSet {
		e.alloc = pmem.NewHeap(config.DefaultHeapSize)
	}
	return e
}

var (
	defaultOnce sync.Once
	defaultEnv  *Env
)

// Default returns the process-wide environment, configured from the
// environment variables on first use. It is never torn down.
func Default() *Env {
	defaultOnce.Do(func() {
		cfg, err := config.Load()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load environment config")
		}
		if err = logging.Init(cfg.LogLevel); err != nil {
			log.Fatal().Err(err).Msg("failed to initialize logger")
		}
		options, err := optionsFromConfig(cfg)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to open persistent memory")
		}
		defaultEnv = New(options...)
	})
	return defaultEnv
}

func optionsFromConfig(cfg *config.Config) ([]Option, error) {
	options := []Option{
		WithRegionSize(cfg.RegionSize),
		WithTestDirectory(cfg.TestTmpDir),
	}
	if cfg.MmapLimit != arch.MaxMappings {
		options = append(options, WithMmapLimit(cfg.MmapLimit))
	}
	if cfg.PoolDir == "" {
		return append(options, WithAllocator(pmem.NewHeap(cfg.HeapSize))), nil
	}
	pool, err := pmem.OpenPool(cfg.PoolDir)
	if err != nil {
		return nil, err
	}
	return append(options, WithAllocator(pool)), nil
}

func (e *Env) backend(name string) route.Backend {
	if e.alloc == nil {
		return route.Filesystem
	}
	return e.policy.Classify(name)
}

// Backend reports where name is stored.
func (e *Env) Backend(name string) route.Backend {
	return e.backend(name)
}

func (e *Env) FileExists(name string) bool {
	if e.backend(name) == route.PersistentMemory {
		_, err := e.alloc.Stat(name)
		return err == nil
	}
	_, err := os.Stat(name)
	return err == nil
}

// Children lists the entries of dir on both backends. Persistent-memory
// objects count as entries when their name is dir, a slash and a name with
// no further slash.
func (e *Env) Children(dir string) ([]string, error) {
	seen := make(map[string]struct{})
	if e.alloc != nil {
		prefix := strings.TrimSuffix(dir, "/") + "/"
		for _, name := range e.alloc.Names() {
			rest, ok := strings.CutPrefix(name, prefix)
			if ok && rest != "" && !strings.Contains(rest, "/") {
				seen[rest] = struct{}{}
			}
		}
	}

	entries, err := os.ReadDir(dir)
	if err != nil && !(errors.Is(err, fs.ErrNotExist) && len(seen) > 0) {
		return nil, ioError("readdir", dir, err)
	}
	for _, entry := range entries {
		seen[entry.Name()] = struct{}{}
	}

	children := make([]string, 0, len(seen))
	for name := range seen {
		children = append(children, name)
	}
	sort.Strings(children)
	log.Debug().Str("dir", dir).Strs("children", children).Msg("listed children")
	return children, nil
}

func (e *Env) DeleteFile(name string) error {
	if e.backend(name) == route.PersistentMemory {
		return ioError("delete", name, e.alloc.Delete(name))
	}
	return ioError("delete", name, os.Remove(name))
}

func (e *Env) CreateDir(name string) error {
	return ioError("mkdir", name, os.Mkdir(name, 0755))
}

func (e *Env) DeleteDir(name string) error {
	info, err := os.Lstat(name)
	if err != nil {
		return ioError("rmdir", name, err)
	}
	if !info.IsDir() {
		return ioError("rmdir", name, fmt.Errorf("%w: not a directory", ErrInvalidArgument))
	}
	return ioError("rmdir", name, os.Remove(name))
}

// FileSize returns the committed length of a persistent-memory file or the
// on-disk size of a filesystem file.
func (e *Env) FileSize(name string) (int64, error) {
	if e.backend(name) == route.PersistentMemory {
		info, err := e.alloc.Stat(name)
		if err != nil {
			return 0, ioError("stat", name, err)
		}
		return int64(info.Committed), nil
	}
	info, err := os.Stat(name)
	if err != nil {
		return 0, ioError("stat", name, err)
	}
	return info.Size(), nil
}

// RenameFile renames src to target, replacing target. Both names must live
// on the same backend. Renaming onto a manifest syncs its directory.
func (e *Env) RenameFile(src, target string) error {
	from, to := e.backend(src), e.backend(target)
	var err error
	switch {
	case from != to:
		err = fmt.Errorf("%w: %s is on %s, %s is on %s", ErrInvalidArgument, src, from, target, to)
	case from == route.PersistentMemory:
		err = e.alloc.Rename(src, target)
	default:
		err = os.Rename(src, target)
	}
	if err != nil {
		return ioError("rename", src, err)
	}
	return e.syncDirIfManifest(target)
}

// syncDirIfManifest fsyncs the directory holding name when name is a
// manifest, so a crash can't lose the directory entry of a manifest the
// engine already treats as durable.
func (e *Env) syncDirIfManifest(name string) error {
	if !strings.HasPrefix(filepath.Base(name), route.ManifestMarker) {
		return nil
	}
	dir := filepath.Dir(name)
	return ioError("sync dir", dir, e.syncDir(dir))
}

func fsyncDir(dir string) error {
	d, err := os.Open(dir)
	if err != nil {
		return err
	}
	defer d.Close()
	return d.Sync()
}

// TestDirectory returns a scratch directory for tests, creating it if
// needed.
func (e *Env) TestDirectory() (string, error) {
	dir := e.testDir
	if dir == "" {
		dir = filepath.Join(os.TempDir(), fmt.Sprintf("nvmenvtest-%d", os.Geteuid()))
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", ioError("mkdir", dir, err)
	}
	return dir, nil
}

func (e *Env) NowMicros() uint64 {
	return uint64(time.Now().UnixMicro())
}

func (e *Env) SleepForMicroseconds(micros int) {
	time.Sleep(time.Duration(micros) * time.Microsecond)
}
