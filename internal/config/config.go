package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config holds settings shared by the bootstrapper binaries.
type Config struct {
	// ManifestURL is the HTTPS location of the release manifest JSON.
	ManifestURL string `yaml:"manifest_url"`
	// InstallRoot is the directory the application is promoted into.
	// When empty, the standard per-user location is used.
	InstallRoot string `yaml:"install_root"`
	// StateFile is the path to the JSON file storing local install state.
	StateFile string `yaml:"state_file"`
	// LogDir is the directory receiving per-run log files.
	// When empty, logs go to stdout only.
	LogDir string `yaml:"log_dir"`
	// Timeout is the duration for network operations.
	Timeout time.Duration `yaml:"timeout"`
}

const (
	// DefaultConfigFilename is the default filename for bootstrapper settings.
	DefaultConfigFilename = "bootstrapper-settings.yaml"

	// DefaultStateFilename is the default filename for local install state JSON.
	DefaultStateFilename = "bootstrapper-state.json"

	// DefaultTimeout is the default duration for network operations.
	DefaultTimeout = 30 * time.Second

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o600

	// AppDirName is the per-user directory holding the standard install,
	// state and logs.
	AppDirName = "paradise"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errManifestURLRequired is returned when the manifest URL is missing.
	errManifestURLRequired = errors.New("manifest URL must be provided")
	// errManifestURLScheme is returned when the manifest URL is not HTTP(S).
	errManifestURLScheme = errors.New("manifest URL must use http or https")
)

// Load reads configuration from the provided path and validates essential fields.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// LoadOrDefaults reads configuration from the provided path, treating a
// missing file as empty settings so a fresh host can run on flags alone.
// No validation happens here; the caller validates after applying overrides.
func LoadOrDefaults(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if errors.Is(err, os.ErrNotExist) {
		return new(Config), nil
	}

	if err != nil {
		return nil, fmt.Errorf("read settings: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal settings: %w", err)
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal settings: %w", err)
	}

	// Restrict permissions.
	if err := os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}

	return nil
}

// Validate checks the provided settings for required fields and formatting.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if cfg.ManifestURL == "" {
		return errManifestURLRequired
	}

	parsed, err := url.ParseRequestURI(cfg.ManifestURL)
	if err != nil {
		return fmt.Errorf("invalid manifest URL: %w", err)
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return errManifestURLScheme
	}

	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	if cfg.StateFile == "" {
		cfg.StateFile = DefaultStateFilename
	}

	return nil
}

// StandardInstallRoot returns the per-user directory used when the operator
// does not pick a custom install path.
func StandardInstallRoot() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}

	return filepath.Join(base, AppDirName, "app"), nil
}

// StandardLogDir returns the per-user directory receiving run log files.
func StandardLogDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("resolve user config directory: %w", err)
	}

	return filepath.Join(base, AppDirName, "logs"), nil
}
