package packager

import (
	"archive/zip"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"sort"

	"github.com/paradise-app/bootstrapper/internal/domain/release"
	"github.com/paradise-app/bootstrapper/internal/logger"
	"github.com/paradise-app/bootstrapper/internal/service/hashcheck"
)

const (
	// ArchiveFilename is the name of the produced release archive.
	ArchiveFilename = "release.zip"

	// ManifestFilename is the name of the produced manifest.
	ManifestFilename = "installer.json"

	// outputFileMode is used for produced artifacts.
	outputFileMode os.FileMode = 0o644
)

var (
	errNoVersion = errors.New("a release version must be provided")
	errEmptyTree = errors.New("input directory contains no files")
)

// Options contains inputs for the packager entry point.
type Options struct {
	// InputDir is the built application tree to package.
	InputDir string
	// OutputDir receives release.zip and installer.json.
	OutputDir string
	// Version is the semantic version stamped into the manifest.
	Version string
	// BaseURL is where the archive will be hosted; it becomes the
	// manifest's release_zip_url.
	BaseURL string
	// WindowsVersionMin is the optional minimum host OS version.
	WindowsVersionMin string
	// VcRedistURL marks the VC++ redistributable as required when set.
	VcRedistURL string
}

// Run packages the application tree into a release archive and emits the
// manifest the bootstrapper consumes, digest included.
func Run(ctx context.Context, opts *Options) error {
	ctx = logger.WithName(ctx, "bootstrap-packager")

	if opts.Version == "" {
		return errNoVersion
	}

	if err := os.MkdirAll(opts.OutputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	archivePath := filepath.Join(opts.OutputDir, ArchiveFilename)

	names, err := buildArchive(ctx, opts.InputDir, archivePath)
	if err != nil {
		return fmt.Errorf("build archive: %w", err)
	}

	digest, err := hashcheck.HexFileDigest(archivePath)
	if err != nil {
		return fmt.Errorf("hash archive: %w", err)
	}

	m, err := buildManifest(opts, names, digest)
	if err != nil {
		return err
	}

	if err = writeManifest(filepath.Join(opts.OutputDir, ManifestFilename), m); err != nil {
		return err
	}

	logger.InfoKV(ctx, "Release packaged",
		"version", opts.Version, "files", len(names), "sha256", digest)

	return nil
}

// buildArchive zips the input tree and returns the sorted top-level entry names.
func buildArchive(ctx context.Context, inputDir, archivePath string) ([]string, error) {
	output, err := os.Create(filepath.Clean(archivePath))
	if err != nil {
		return nil, err
	}

	writer := zip.NewWriter(output)
	topLevel := make(map[string]struct{})

	walkErr := filepath.WalkDir(inputDir, func(filePath string, entry os.DirEntry, err error) error {
		if err != nil {
			return err
		}

		if entry.IsDir() {
			return nil
		}

		relative, err := filepath.Rel(inputDir, filePath)
		if err != nil {
			return err
		}

		archiveName := filepath.ToSlash(relative)
		topLevel[topLevelName(archiveName)] = struct{}{}

		logger.DebugKV(ctx, "Adding file to archive", "name", archiveName)

		return addFile(writer, filePath, archiveName)
	})

	if walkErr != nil {
		_ = writer.Close()
		_ = output.Close()
		_ = os.Remove(archivePath)

		return nil, walkErr
	}

	if err = writer.Close(); err != nil {
		_ = output.Close()

		return nil, err
	}

	if err = output.Close(); err != nil {
		return nil, err
	}

	if len(topLevel) == 0 {
		_ = os.Remove(archivePath)

		return nil, errEmptyTree
	}

	names := make([]string, 0, len(topLevel))
	for name := range topLevel {
		names = append(names, name)
	}

	sort.Strings(names)

	return names, nil
}

// addFile streams one file into the archive under archiveName.
func addFile(writer *zip.Writer, filePath, archiveName string) error {
	source, err := os.Open(filepath.Clean(filePath))
	if err != nil {
		return err
	}

	defer func() {
		_ = source.Close()
	}()

	entry, err := writer.Create(archiveName)
	if err != nil {
		return err
	}

	_, err = io.Copy(entry, source)

	return err
}

// topLevelName reduces a slash path to its first component.
func topLevelName(archiveName string) string {
	for i := 0; i < len(archiveName); i++ {
		if archiveName[i] == '/' {
			return archiveName[:i]
		}
	}

	return archiveName
}

// buildManifest assembles and validates the manifest for the archive.
func buildManifest(opts *Options, names []string, digest string) (*release.Manifest, error) {
	zipURL, err := url.JoinPath(opts.BaseURL, ArchiveFilename)
	if err != nil {
		return nil, fmt.Errorf("compose release URL: %w", err)
	}

	m := &release.Manifest{
		Version:       opts.Version,
		ReleaseZipURL: zipURL,
		SHA256:        digest,
	}

	for _, name := range names {
		m.Files = append(m.Files, release.FileEntry{Name: name})
	}

	if opts.WindowsVersionMin != "" {
		m.Prerequisites.WindowsVersionMin = opts.WindowsVersionMin
	}

	if opts.VcRedistURL != "" {
		m.Prerequisites.VcRedist = &release.VcRedist{Required: true, URL: opts.VcRedistURL}
	}

	if err = m.Validate(); err != nil {
		return nil, err
	}

	return m, nil
}

// writeManifest renders the manifest as indented JSON.
func writeManifest(manifestPath string, m *release.Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(manifestPath), data, outputFileMode); err != nil {
		return fmt.Errorf("write manifest: %w", err)
	}

	return nil
}
