package installer

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// errUnsafeArchivePath is returned for entries escaping the staging directory.
var errUnsafeArchivePath = errors.New("archive entry has unsafe path")

// extractZip unpacks the archive at zipPath into destination, which must
// already exist. Entry paths are confined to the destination; anything
// trying to escape it fails the whole extraction.
func extractZip(zipPath, destination string) error {
	reader, err := zip.OpenReader(zipPath)
	if err != nil {
		return fmt.Errorf("open archive: %w", err)
	}

	defer func() {
		_ = reader.Close()
	}()

	for _, entry := range reader.File {
		if err = extractEntry(entry, destination); err != nil {
			return err
		}
	}

	return nil
}

// extractEntry writes a single archive entry under destination.
func extractEntry(entry *zip.File, destination string) error {
	target, err := safeJoin(destination, entry.Name)
	if err != nil {
		return err
	}

	if entry.FileInfo().IsDir() {
		if err = os.MkdirAll(target, 0o755); err != nil {
			return fmt.Errorf("create directory %s: %w", entry.Name, err)
		}

		return nil
	}

	if err = os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
		return fmt.Errorf("create parent for %s: %w", entry.Name, err)
	}

	source, err := entry.Open()
	if err != nil {
		return fmt.Errorf("open archive entry %s: %w", entry.Name, err)
	}

	defer func() {
		_ = source.Close()
	}()

	output, err := os.OpenFile(filepath.Clean(target), os.O_WRONLY|os.O_CREATE|os.O_TRUNC, entry.Mode().Perm()|0o600)
	if err != nil {
		return fmt.Errorf("create extracted file %s: %w", entry.Name, err)
	}

	if _, err = io.Copy(output, source); err != nil {
		_ = output.Close()

		return fmt.Errorf("write extracted file %s: %w", entry.Name, err)
	}

	if err = output.Close(); err != nil {
		return fmt.Errorf("close extracted file %s: %w", entry.Name, err)
	}

	return nil
}

// safeJoin joins name onto base and rejects results escaping base.
func safeJoin(base, name string) (string, error) {
	joined := filepath.Join(base, filepath.FromSlash(name))

	relative, err := filepath.Rel(base, joined)
	if err != nil || relative == ".." || strings.HasPrefix(relative, ".."+string(os.PathSeparator)) {
		return "", fmt.Errorf("%w: %s", errUnsafeArchivePath, name)
	}

	return joined, nil
}
