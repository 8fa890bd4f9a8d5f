package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrWriterBusy is returned when another writer or reader holds the index lock.
var ErrWriterBusy = errors.New("index is locked by another writer")

// LockPath returns the lock file guarding the index at path.
func LockPath(path string) string {
	return filepath.Clean(path) + ".lock"
}

// indexLock is a non-blocking cross-process lock on an index directory.
// Writers take it exclusively; readers take it shared.
type indexLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

func newIndexLock(indexPath string) *indexLock {
	p := LockPath(indexPath)
	return &indexLock{path: p, flock: flock.New(p)}
}

// tryLock acquires the lock without blocking. It returns ErrWriterBusy if
// the lock is held elsewhere.
func (l *indexLock) tryLock(shared bool) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}

	var (
		acquired bool
		err      error
	)
	if shared {
		acquired, err = l.flock.TryRLock()
	} else {
		acquired, err = l.flock.TryLock()
	}
	if err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", l.path, err)
	}
	if !acquired {
		return ErrWriterBusy
	}

	l.locked = true
	return nil
}

// unlock releases the lock. Safe to call when not held.
func (l *indexLock) unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
