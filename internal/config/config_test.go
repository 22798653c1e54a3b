package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

// TestValidate checks required fields and format validations for Config.
func TestValidate(t *testing.T) {
	t.Parallel()

	// Missing manifest URL.
	cfg := new(Config)

	err := Validate(cfg)
	require.Error(t, err)

	// Bad URL.
	cfg = &Config{
		ManifestURL: "not a url",
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Wrong scheme.
	cfg = &Config{
		ManifestURL: "ftp://example.com/installer.json",
	}

	err = Validate(cfg)
	require.Error(t, err)

	// Okay; defaults applied.
	cfg = &Config{
		ManifestURL: "https://example.com/installer.json",
	}

	err = Validate(cfg)
	require.NoError(t, err)
	require.Equal(t, DefaultTimeout, cfg.Timeout)
	require.Equal(t, DefaultStateFilename, cfg.StateFile)
}

// TestLoadOrDefaults tolerates a missing settings file and defers validation.
func TestLoadOrDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()

	// No file at all: empty settings, no error.
	cfg, err := LoadOrDefaults(filepath.Join(dir, "missing.yaml"))
	require.NoError(t, err)
	require.Empty(t, cfg.ManifestURL)

	// A file without a manifest URL still loads; the caller validates after
	// merging overrides.
	path := filepath.Join(dir, "settings.yaml")
	require.NoError(t, os.WriteFile(path, []byte("install_root: /opt/app\n"), 0o600))

	cfg, err = LoadOrDefaults(path)
	require.NoError(t, err)
	require.Equal(t, "/opt/app", cfg.InstallRoot)
	require.Empty(t, cfg.ManifestURL)

	// Garbage contents are still an error.
	require.NoError(t, os.WriteFile(path, []byte("{{not yaml"), 0o600))

	_, err = LoadOrDefaults(path)
	require.Error(t, err)
}

// TestSaveLoadRoundtrip ensures settings are persisted and loaded back correctly.
func TestSaveLoadRoundtrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "settings.yaml")

	cfg := &Config{
		ManifestURL: "https://updates.local/installer.json",
		InstallRoot: filepath.Join(dir, "app"),
	}

	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	require.Equal(t, cfg.ManifestURL, loaded.ManifestURL)
	require.Equal(t, cfg.InstallRoot, loaded.InstallRoot)

	// File exists.
	_, err = os.Stat(path)
	require.NoError(t, err)
}
