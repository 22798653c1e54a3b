package installer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/paradise-app/bootstrapper/internal/domain/release"
	"github.com/paradise-app/bootstrapper/internal/logger"
	"github.com/paradise-app/bootstrapper/internal/repository/state"
)

// Stage names the step of the install attempt an error happened in.
type Stage string

const (
	// StageStaging covers extraction and payload validation.
	StageStaging Stage = "staging"
	// StagePromoting covers the directory swap into the install root.
	StagePromoting Stage = "promoting"
	// StageRecording covers persisting the new install state.
	StageRecording Stage = "recording"
)

// backupSuffix names the sibling directory keeping the previous install
// until promotion is confirmed.
const backupSuffix = ".backup"

// ErrIncompleteArchive is returned when a manifest-declared file is missing
// from the extracted tree. This catches archives that hash-match but were
// built incorrectly.
var ErrIncompleteArchive = errors.New("archive is missing declared files")

// InstallError reports a failed install attempt. Rollback has already run by
// the time the caller sees one: the install root and recorded state match
// their pre-attempt values.
type InstallError struct {
	Stage Stage
	Err   error
}

// Error implements the error interface.
func (e *InstallError) Error() string {
	return fmt.Sprintf("install failed while %s: %v", e.Stage, e.Err)
}

// Unwrap exposes the underlying cause.
func (e *InstallError) Unwrap() error {
	return e.Err
}

// Installer extracts verified archives into a staging area and atomically
// promotes them into the install root.
type Installer struct {
	stateRepo state.Repository
}

// New creates an installer persisting install state through repo.
func New(repo state.Repository) *Installer {
	return &Installer{stateRepo: repo}
}

// Install runs the staged install of the verified archive at archivePath.
//
// The archive is extracted into a fresh sibling staging directory, the
// manifest's declared file list is confirmed against the extracted tree, and
// the staging directory is swapped into place with the previous install kept
// as a backup until the new state is recorded. Any failure rolls back: the
// staging directory is removed and the install root and persisted state are
// left exactly as they were. Only the caller-verified archive may be passed
// here; this function does not re-check the payload digest.
func (i *Installer) Install(
	ctx context.Context,
	archivePath string,
	m *release.Manifest,
	current *release.InstallState,
) (string, error) {
	installRoot := filepath.Clean(current.InstallRoot)

	guard, err := acquireLock(ctx, installRoot)
	if err != nil {
		return "", err
	}

	defer guard.release()

	recoverFromInterruptedAttempt(ctx, installRoot)

	staging, err := os.MkdirTemp(filepath.Dir(installRoot), filepath.Base(installRoot)+".staging-")
	if err != nil {
		return "", &InstallError{Stage: StageStaging, Err: err}
	}

	// Gone on success (renamed away) or failure (rolled back); never left behind.
	defer func() {
		_ = os.RemoveAll(staging)
	}()

	logger.InfoKV(ctx, "Extracting archive into staging directory", "staging", staging)

	if err = extractZip(archivePath, staging); err != nil {
		return "", &InstallError{Stage: StageStaging, Err: err}
	}

	if err = confirmDeclaredFiles(staging, m.Files); err != nil {
		return "", err
	}

	logger.Info(ctx, "Staging verified complete, promoting")

	if err = terminateReleaseProcesses(ctx, m.Files); err != nil {
		return "", &InstallError{Stage: StagePromoting, Err: err}
	}

	backup, err := promote(ctx, staging, installRoot)
	if err != nil {
		return "", &InstallError{Stage: StagePromoting, Err: err}
	}

	newState := &release.InstallState{
		InstalledVersion: m.Version,
		InstallRoot:      current.InstallRoot,
	}

	if err = i.stateRepo.Save(ctx, newState); err != nil {
		rollbackPromotion(ctx, installRoot, backup)

		return "", &InstallError{Stage: StageRecording, Err: err}
	}

	if backup != "" {
		_ = os.RemoveAll(backup)
	}

	logger.InfoKV(ctx, "Release installed", "version", m.Version, "root", installRoot)

	return m.Version, nil
}

// confirmDeclaredFiles checks that every manifest-declared entry exists in
// the extracted tree by name. The declared list is a manifest-level
// integrity check independent of the archive digest.
func confirmDeclaredFiles(staging string, files []release.FileEntry) error {
	for _, file := range files {
		target, err := safeJoin(staging, file.Name)
		if err != nil {
			return &InstallError{Stage: StageStaging, Err: err}
		}

		if _, err = os.Stat(target); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return fmt.Errorf("%w: %s", ErrIncompleteArchive, file.Name)
			}

			return &InstallError{Stage: StageStaging, Err: err}
		}
	}

	return nil
}

// promote swaps staging into installRoot, keeping any previous install as a
// backup. It returns the backup path ("" when there was no previous install).
// The rename is the critical section: a single directory-entry swap on the
// common same-filesystem path, with a documented copy fallback across
// devices. Atomicity is best-effort and depends on the underlying filesystem.
func promote(ctx context.Context, staging, installRoot string) (string, error) {
	backup := ""

	if _, err := os.Stat(installRoot); err == nil {
		backup = installRoot + backupSuffix

		// A backup from an earlier interrupted attempt is superseded.
		if err = os.RemoveAll(backup); err != nil {
			return "", fmt.Errorf("remove stale backup: %w", err)
		}

		if err = os.Rename(installRoot, backup); err != nil {
			return "", fmt.Errorf("back up current install: %w", err)
		}
	} else if !errors.Is(err, os.ErrNotExist) {
		return "", fmt.Errorf("inspect install root: %w", err)
	}

	if err := os.Rename(staging, installRoot); err != nil {
		logger.WarnKV(ctx, "Rename promotion failed, falling back to copy", "error", err)

		if copyErr := copyTree(staging, installRoot); copyErr != nil {
			rollbackPromotion(ctx, installRoot, backup)

			return "", fmt.Errorf("promote staging directory: %w", copyErr)
		}
	}

	return backup, nil
}

// recoverFromInterruptedAttempt repairs the aftermath of a crash in an
// earlier run: a backup with no install root means the process died between
// the two promotion renames, and the backup is the previous install. Staging
// directories orphaned by crashes are swept as well.
func recoverFromInterruptedAttempt(ctx context.Context, installRoot string) {
	backup := installRoot + backupSuffix

	if _, err := os.Stat(installRoot); errors.Is(err, os.ErrNotExist) {
		if _, backupErr := os.Stat(backup); backupErr == nil {
			logger.InfoKV(ctx, "Restoring previous install left by an interrupted attempt", "backup", backup)

			if renameErr := os.Rename(backup, installRoot); renameErr != nil {
				logger.ErrorKV(ctx, "Failed to restore interrupted backup", "error", renameErr)
			}
		}
	}

	matches, err := filepath.Glob(installRoot + ".staging-*")
	if err != nil {
		return
	}

	for _, stale := range matches {
		logger.InfoKV(ctx, "Removing stale staging directory", "path", stale)
		_ = os.RemoveAll(stale)
	}
}

// rollbackPromotion removes whatever ended up in installRoot and restores
// the backup, returning the root to its pre-attempt contents.
func rollbackPromotion(ctx context.Context, installRoot, backup string) {
	_ = os.RemoveAll(installRoot)

	if backup == "" {
		return
	}

	if err := os.Rename(backup, installRoot); err != nil {
		logger.ErrorKV(ctx, "Failed to restore install backup",
			"backup", backup, "root", installRoot, "error", err)
	}
}

// copyTree recursively copies src into dst, which must not exist yet.
// Used only when staging and install root sit on different filesystems.
func copyTree(src, dst string) error {
	if err := os.MkdirAll(dst, 0o755); err != nil {
		return err
	}

	entries, err := os.ReadDir(src)
	if err != nil {
		return err
	}

	for _, entry := range entries {
		sourcePath := filepath.Join(src, entry.Name())
		targetPath := filepath.Join(dst, entry.Name())

		if entry.IsDir() {
			if err = copyTree(sourcePath, targetPath); err != nil {
				return err
			}

			continue
		}

		if err = copyFile(sourcePath, targetPath); err != nil {
			return err
		}
	}

	return nil
}

// copyFile copies a single regular file preserving its mode.
func copyFile(src, dst string) error {
	info, err := os.Stat(src)
	if err != nil {
		return err
	}

	source, err := os.Open(filepath.Clean(src))
	if err != nil {
		return err
	}

	defer func() {
		_ = source.Close()
	}()

	target, err := os.OpenFile(filepath.Clean(dst), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, info.Mode().Perm())
	if err != nil {
		return err
	}

	if _, err = io.Copy(target, source); err != nil {
		_ = target.Close()

		return err
	}

	return target.Close()
}
