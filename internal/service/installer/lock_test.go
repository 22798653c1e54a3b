package installer

import (
	"context"
	"os"
	"path/filepath"
	"strconv"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestAcquireLock_Exclusive rejects a second acquisition by a live owner.
func TestAcquireLock_Exclusive(t *testing.T) {
	t.Parallel()

	root := filepath.Join(t.TempDir(), "app")
	ctx := context.Background()

	guard, err := acquireLock(ctx, root)
	require.NoError(t, err)

	// The lock is held by this very much alive process.
	_, err = acquireLock(ctx, root)
	require.ErrorIs(t, err, ErrLocked)

	guard.release()

	// Released: acquirable again.
	guard, err = acquireLock(ctx, root)
	require.NoError(t, err)
	guard.release()
}

// TestAcquireLock_ReclaimsDeadOwner takes over a lock whose pid no longer exists.
func TestAcquireLock_ReclaimsDeadOwner(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	root := filepath.Join(dir, "app")
	lockPath := root + LockSuffix

	// A pid far above any real process table entry.
	require.NoError(t, os.WriteFile(lockPath, []byte(strconv.Itoa(1<<22+7)), 0o600))

	guard, err := acquireLock(context.Background(), root)
	require.NoError(t, err)

	defer guard.release()

	contents, err := os.ReadFile(lockPath)
	require.NoError(t, err)
	require.Equal(t, strconv.Itoa(os.Getpid()), string(contents))
}

// TestAcquireLock_ScopedPerRoot lets sibling roots under one parent install
// concurrently; each root has its own lock.
func TestAcquireLock_ScopedPerRoot(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	ctx := context.Background()

	first, err := acquireLock(ctx, filepath.Join(dir, "app"))
	require.NoError(t, err)

	defer first.release()

	second, err := acquireLock(ctx, filepath.Join(dir, "other"))
	require.NoError(t, err)
	second.release()
}

// TestAcquireLock_KeepsFreshUnreadableLock refuses to steal a recent lock
// whose owner cannot be determined.
func TestAcquireLock_KeepsFreshUnreadableLock(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	root := filepath.Join(dir, "app")
	lockPath := root + LockSuffix

	require.NoError(t, os.WriteFile(lockPath, []byte("garbage"), 0o600))

	_, err := acquireLock(context.Background(), root)
	require.ErrorIs(t, err, ErrLocked)
}
