package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/mitchellh/go-ps"

	"github.com/paradise-app/bootstrapper/internal/logger"
)

const (
	// LockSuffix names the per-root lockfile created next to the install
	// root. The lock sits in the parent because the root itself is renamed
	// during promotion.
	LockSuffix = ".lock"

	// lockLifetime is the period after which an orphaned lock whose owner
	// cannot be identified is considered stale and reclaimed.
	lockLifetime = 30 * time.Minute
)

// ErrLocked is returned when another bootstrapper owns the install root.
var ErrLocked = errors.New("another install is in progress against this root")

// lock is a pid-stamped lockfile preventing two bootstrapper invocations
// from promoting into the same install root simultaneously.
type lock struct {
	path string
}

// acquireLock creates the lockfile next to the install root, named after the
// root so sibling roots never contend. A lock left by a process that no
// longer exists is reclaimed; a live owner wins.
func acquireLock(ctx context.Context, installRoot string) (*lock, error) {
	cleanRoot := filepath.Clean(installRoot)

	parent := filepath.Dir(cleanRoot)
	if err := os.MkdirAll(parent, 0o755); err != nil {
		return nil, fmt.Errorf("create install parent directory: %w", err)
	}

	path := cleanRoot + LockSuffix

	for attempt := 0; attempt < 2; attempt++ {
		file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
		if err == nil {
			_, writeErr := file.WriteString(strconv.Itoa(os.Getpid()))
			if closeErr := file.Close(); writeErr == nil {
				writeErr = closeErr
			}

			if writeErr != nil {
				_ = os.Remove(path)

				return nil, fmt.Errorf("write lockfile: %w", writeErr)
			}

			return &lock{path: path}, nil
		}

		if !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create lockfile: %w", err)
		}

		if !isLockStale(ctx, path) {
			return nil, ErrLocked
		}

		logger.InfoKV(ctx, "Reclaiming stale lockfile", "path", path)

		if err = os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return nil, ErrLocked
		}
	}

	return nil, ErrLocked
}

// release removes the lockfile.
func (l *lock) release() {
	if l == nil {
		return
	}

	_ = os.Remove(l.path)
}

// isLockStale reports whether the lock's owning process is gone.
// An unreadable pid falls back to an age check.
func isLockStale(ctx context.Context, path string) bool {
	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return false
	}

	pid, err := strconv.Atoi(strings.TrimSpace(string(contents)))
	if err == nil && pid > 0 {
		process, findErr := ps.FindProcess(pid)
		if findErr == nil {
			return process == nil
		}
	}

	info, err := os.Stat(path)
	if err != nil {
		return false
	}

	if time.Since(info.ModTime()) > lockLifetime {
		logger.Info(ctx, "Lockfile owner is unknown and the lock is old")
		return true
	}

	return false
}
