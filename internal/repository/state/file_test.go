package state

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paradise-app/bootstrapper/internal/domain/release"
)

// TestLoad_NotFound maps a missing state file to ErrNotFound.
func TestLoad_NotFound(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "state.json"))

	_, err := repo.Load(context.Background())
	require.ErrorIs(t, err, ErrNotFound)
}

// TestSaveLoadRoundtrip persists a state and reads it back unchanged.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	repo := NewFileRepository(filepath.Join(dir, "state.json"))

	saved := &release.InstallState{
		InstalledVersion: "1.0.1",
		InstallRoot:      filepath.Join(dir, "app"),
	}

	require.NoError(t, repo.Save(context.Background(), saved))

	loaded, err := repo.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, saved, loaded)

	// No temp file left behind.
	_, err = os.Stat(filepath.Join(dir, "state.json.tmp"))
	require.ErrorIs(t, err, os.ErrNotExist)
}

// TestLoad_Corrupt fails on unparseable state instead of guessing.
func TestLoad_Corrupt(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "state.json")
	require.NoError(t, os.WriteFile(path, []byte("{not json"), 0o600))

	_, err := NewFileRepository(path).Load(context.Background())
	require.Error(t, err)
	require.NotErrorIs(t, err, ErrNotFound)
}

// TestSave_NilState rejects nil input.
func TestSave_NilState(t *testing.T) {
	t.Parallel()

	repo := NewFileRepository(filepath.Join(t.TempDir(), "state.json"))
	require.Error(t, repo.Save(context.Background(), nil))
}
