package store

import (
	"crypto/sha1"
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
)

// ErrStoreBusy reports that another conversion holds the store lock.
var ErrStoreBusy = errors.New("frame store is in use by another conversion")

// Lock is an exclusive advisory lock on one store root.
type Lock struct {
	path string
	lock *flock.Flock
}

// LockPath returns the lock file used for root inside lockDir. Lock files
// live outside the store so the layout stays free of foreign files.
func LockPath(lockDir, root string) (string, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return "", fmt.Errorf("resolve store root: %w", err)
	}
	sum := sha1.Sum([]byte(abs))
	return filepath.Join(lockDir, hex.EncodeToString(sum[:])+".lock"), nil
}

// AcquireLock takes the lock for root without blocking.
func AcquireLock(lockDir, root string) (*Lock, error) {
	path, err := LockPath(lockDir, root)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(lockDir, 0o755); err != nil {
		return nil, fmt.Errorf("create lock directory: %w", err)
	}
	fl := flock.New(path)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrStoreBusy, root)
	}
	return &Lock{path: path, lock: fl}, nil
}

// Path returns the lock file path.
func (l *Lock) Path() string { return l.path }

// Release unlocks the store.
func (l *Lock) Release() error {
	if l == nil || l.lock == nil {
		return nil
	}
	return l.lock.Unlock()
}
