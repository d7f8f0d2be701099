package env

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog/log"
	"golang.org/x/sys/unix"
)

// FileLock is an exclusive advisory lock held on a file by this process.
type FileLock struct {
	name string
	file *os.File
}

func (l *FileLock) Name() string {
	return l.name
}

// LockFile creates name if needed and takes an exclusive fcntl lock on it.
// A name this process already locked fails with ErrAlreadyLocked, since
// fcntl would grant the same process the lock again.
func (e *Env) LockFile(name string) (lock *FileLock, err error) {
	f, err := os.OpenFile(name, os.O_RDWR|os.O_CREATE, 0644)
	if err != nil {
		return nil, ioError("lock", name, err)
	}
	defer func() {
		if lock == nil {
			_ = f.Close()
		}
	}()

	if !e.locks.Insert(name) {
		return nil, ioError("lock", name, ErrAlreadyLocked)
	}
	if err = setLock(f, unix.F_WRLCK); err != nil {
		e.locks.Remove(name)
		return nil, ioError("lock", name, fmt.Errorf("failed to lock file: %w", err))
	}

	log.Debug().Str("file", name).Msg("locked file")
	return &FileLock{name: name, file: f}, nil
}

// UnlockFile releases lock. The table entry is dropped and the descriptor
// closed even when releasing the fcntl lock fails.
func (e *Env) UnlockFile(lock *FileLock) error {
	if lock == nil {
		return ioError("unlock", "", ErrInvalidArgument)
	}
	err := setLock(lock.file, unix.F_UNLCK)
	e.locks.Remove(lock.name)
	return ioError("unlock", lock.name, errors.Join(err, lock.file.Close()))
}

func setLock(f *os.File, kind int16) error {
	return unix.FcntlFlock(f.Fd(), unix.F_SETLK, &unix.Flock_t{
		Type:   kind,
		Whence: int16(io.SeekStart),
	})
}
