package indexer

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// runLock serializes indexing runs across processes with a lock file in
// the data directory. A second `unidocs index` started while one is
// running fails fast instead of interleaving writes.
type runLock struct {
	flock  *flock.Flock
	locked bool
}

func newRunLock(dataDir string) *runLock {
	return &runLock{
		flock: flock.New(filepath.Join(dataDir, ".index.lock")),
	}
}

// TryLock attempts a non-blocking exclusive lock. Returns false when
// another process holds it.
func (l *runLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.flock.Path()), 0o755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire index lock: %w", err)
	}
	l.locked = acquired
	return acquired, nil
}

// Unlock releases the lock. Safe to call when not held.
func (l *runLock) Unlock() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	return l.flock.Unlock()
}
