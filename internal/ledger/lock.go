package ledger

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrLocked indicates another invocation holds the work directory.
var ErrLocked = errors.New("work directory is in use by another invocation")

// Lock guards a work directory against concurrent pipeline runs.
type Lock struct {
	path string
	fl   *flock.Flock
}

// NewLock prepares a lock for workdir without acquiring it.
func NewLock(workdir string) (*Lock, error) {
	if err := os.MkdirAll(workdir, 0o755); err != nil {
		return nil, fmt.Errorf("ensure work dir: %w", err)
	}
	path := filepath.Join(workdir, "gocrystal.lock")
	return &Lock{path: path, fl: flock.New(path)}, nil
}

// Acquire takes the lock, failing immediately if it is held elsewhere.
func (l *Lock) Acquire() error {
	ok, err := l.fl.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return fmt.Errorf("%w (lock file %s)", ErrLocked, l.path)
	}
	return nil
}

// Release gives the lock back.
func (l *Lock) Release() error {
	return l.fl.Unlock()
}

// Path returns the lock file path.
func (l *Lock) Path() string {
	return l.path
}
