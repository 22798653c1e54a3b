package packager

import (
	"archive/zip"
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/paradise-app/bootstrapper/internal/domain/release"
	"github.com/paradise-app/bootstrapper/internal/service/hashcheck"
)

// writeTree lays out an application build directory.
func writeTree(t *testing.T, files map[string]string) string {
	t.Helper()

	dir := t.TempDir()
	for name, contents := range files {
		path := filepath.Join(dir, filepath.FromSlash(name))
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(contents), 0o644))
	}

	return dir
}

// TestRun_ProducesArchiveAndManifest packages a tree and checks both outputs.
func TestRun_ProducesArchiveAndManifest(t *testing.T) {
	t.Parallel()

	input := writeTree(t, map[string]string{
		"paradise.exe":     "binary",
		"assets/sound.dat": "data",
		"assets/img.dat":   "data2",
	})
	output := t.TempDir()

	opts := &Options{
		InputDir:          input,
		OutputDir:         output,
		Version:           "1.0.1",
		BaseURL:           "https://updates.local/releases/",
		WindowsVersionMin: "10.0.19041",
		VcRedistURL:       "https://updates.local/vc_redist.x64.exe",
	}

	require.NoError(t, Run(context.Background(), opts))

	// The manifest parses, validates, and matches the archive digest.
	data, err := os.ReadFile(filepath.Join(output, ManifestFilename))
	require.NoError(t, err)

	var m release.Manifest

	require.NoError(t, json.Unmarshal(data, &m))
	require.NoError(t, m.Validate())
	require.Equal(t, "1.0.1", m.Version)
	require.Equal(t, "https://updates.local/releases/release.zip", m.ReleaseZipURL)
	require.Equal(t, []release.FileEntry{{Name: "assets"}, {Name: "paradise.exe"}}, m.Files)
	require.Equal(t, "10.0.19041", m.Prerequisites.WindowsVersionMin)
	require.True(t, m.Prerequisites.VcRedist.Required)

	digest, err := hashcheck.HexFileDigest(filepath.Join(output, ArchiveFilename))
	require.NoError(t, err)
	require.Equal(t, digest, m.SHA256)

	// The archive holds every input file.
	reader, err := zip.OpenReader(filepath.Join(output, ArchiveFilename))
	require.NoError(t, err)

	t.Cleanup(func() {
		_ = reader.Close()
	})

	names := make([]string, 0, len(reader.File))
	for _, entry := range reader.File {
		names = append(names, entry.Name)
	}

	require.ElementsMatch(t, []string{"paradise.exe", "assets/sound.dat", "assets/img.dat"}, names)
}

// TestRun_RequiresVersion rejects packaging without a version.
func TestRun_RequiresVersion(t *testing.T) {
	t.Parallel()

	opts := &Options{
		InputDir:  writeTree(t, map[string]string{"a": "x"}),
		OutputDir: t.TempDir(),
		BaseURL:   "https://updates.local/",
	}

	require.Error(t, Run(context.Background(), opts))
}

// TestRun_EmptyTree rejects an input directory with no files.
func TestRun_EmptyTree(t *testing.T) {
	t.Parallel()

	opts := &Options{
		InputDir:  t.TempDir(),
		OutputDir: t.TempDir(),
		Version:   "1.0.0",
		BaseURL:   "https://updates.local/",
	}

	require.Error(t, Run(context.Background(), opts))
}
