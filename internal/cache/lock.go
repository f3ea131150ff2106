package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/bdp-project/bdp/internal/bdperr"
)

// lockTimeout and lockPollInterval mirror the teacher's JSONLLock retry
// loop (cmd/bd/jsonl_lock.go): poll until acquired or the context/timeout
// gives up.
const (
	lockTimeout      = 30 * time.Second
	lockPollInterval = 50 * time.Millisecond
)

// keyLock coalesces concurrent pulls of the same cache key to a single
// download: the first caller to acquire the advisory file lock performs
// the fetch, later callers block until it releases and then find the
// entry already in the catalog.
type keyLock struct {
	flock *flock.Flock
}

// newKeyLock builds the lock file path from a hash of the target path
// rather than the path itself, so it works uniformly regardless of how
// deep sources/{org}/{name}@{version}/{format}/ nests.
func newKeyLock(locksDir, targetPath string) (*keyLock, error) {
	if err := os.MkdirAll(locksDir, 0o755); err != nil {
		return nil, bdperr.Wrap(bdperr.KindInternal, err, "create cache locks directory")
	}
	sum := sha256.Sum256([]byte(targetPath))
	lockPath := filepath.Join(locksDir, hex.EncodeToString(sum[:])+".lock")
	return &keyLock{flock: flock.New(lockPath)}, nil
}

// Acquire blocks (polling) until the exclusive lock is held, the context
// is cancelled, or lockTimeout elapses.
func (l *keyLock) Acquire(ctx context.Context) error {
	deadline := time.Now().Add(lockTimeout)
	for {
		locked, err := l.flock.TryLock()
		if err != nil {
			return bdperr.Wrap(bdperr.KindInternal, err, "acquire cache fetch lock")
		}
		if locked {
			return nil
		}
		if time.Now().After(deadline) {
			return bdperr.New(bdperr.KindTimeoutExceeded, "timed out waiting for cache fetch lock")
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(lockPollInterval):
		}
	}
}

func (l *keyLock) Release() error {
	return l.flock.Unlock()
}
