package artifact

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	generrors "github.com/Aman-CERP/microgen/internal/errors"
)

// lockRetry is the TryLock polling interval.
const lockRetry = 50 * time.Millisecond

// fileLock is a cross-process lock on <root>/.microgen/artifact.lock.
// It works on all platforms gofrs/flock supports.
type fileLock struct {
	path   string
	flock  *flock.Flock
	locked bool
}

func newFileLock(root string) *fileLock {
	path := filepath.Join(root, StateDir, LockFile)
	return &fileLock{
		path:  path,
		flock: flock.New(path),
	}
}

// acquire polls TryLock until the lock is held, ctx is done or timeout
// elapses. Contention past the timeout is ERR_205.
func (l *fileLock) acquire(ctx context.Context, timeout time.Duration) error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0o755); err != nil {
		return generrors.FilesystemError("create lock directory", filepath.Dir(l.path), err)
	}

	waitCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ok, err := l.flock.TryLockContext(waitCtx, lockRetry)
	if ok {
		l.locked = true
		return nil
	}
	if err == nil || errors.Is(err, context.DeadlineExceeded) {
		return generrors.New(generrors.ErrCodeArtifactLocked,
			fmt.Sprintf("another microgen process holds %s", l.path), err).
			WithDetail("lock", l.path).
			WithDetail("timeout", timeout.String()).
			WithSuggestion("Wait for the other run to finish, or raise patch.lock_timeout")
	}
	if errors.Is(err, context.Canceled) {
		return err
	}
	return generrors.FilesystemError("acquire lock", l.path, err)
}

// release is safe to call on an unlocked lock.
func (l *fileLock) release() error {
	if !l.locked {
		return nil
	}
	l.locked = false
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock: %w", err)
	}
	return nil
}
