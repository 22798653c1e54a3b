package state

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/paradise-app/bootstrapper/internal/config"
	"github.com/paradise-app/bootstrapper/internal/domain/release"
)

// Repository defines persistence operations for the local install state.
type Repository interface {
	Load(ctx context.Context) (*release.InstallState, error)
	Save(ctx context.Context, state *release.InstallState) error
}

// ErrNotFound is returned when the state file does not exist yet.
var ErrNotFound = errors.New("install state not found")

// errStateIsNotSet is returned when a nil state is passed to Save.
var errStateIsNotSet = errors.New("install state is not set")

// FileRepository persists the install state to a JSON file on disk.
type FileRepository struct {
	// path is the filesystem location of the JSON state file.
	path string
	// mu protects concurrent access to the state file.
	mu sync.Mutex
}

// NewFileRepository creates a repository that reads/writes JSON at the provided path.
func NewFileRepository(path string) *FileRepository {
	return &FileRepository{
		path: filepath.Clean(path),
	}
}

// Load reads the state from disk.
func (r *FileRepository) Load(_ context.Context) (*release.InstallState, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	contents, err := os.ReadFile(r.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, ErrNotFound
		}

		return nil, fmt.Errorf("read state file: %w", err)
	}

	var state release.InstallState
	if err = json.Unmarshal(contents, &state); err != nil {
		return nil, fmt.Errorf("decode state file: %w", err)
	}

	return &state, nil
}

// Save writes the state to disk. The write goes through a sibling temp file
// and a rename so a crash never leaves a truncated state file behind.
func (r *FileRepository) Save(_ context.Context, state *release.InstallState) error {
	if state == nil {
		return errStateIsNotSet
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state: %w", err)
	}

	tempPath := r.path + ".tmp"
	if err = os.WriteFile(tempPath, data, config.DefaultFilePermissions); err != nil {
		return fmt.Errorf("write state file: %w", err)
	}

	if err = os.Rename(tempPath, r.path); err != nil {
		_ = os.Remove(tempPath)

		return fmt.Errorf("replace state file: %w", err)
	}

	return nil
}
