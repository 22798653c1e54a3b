package release

import (
	"errors"
	"fmt"
)

// hexDigestLength is the hex-encoded length of a SHA-256 digest.
const hexDigestLength = 64

var (
	// ErrMalformed is the root cause for every structural manifest defect.
	ErrMalformed = errors.New("manifest is malformed")

	errEmptyVersion   = errors.New("version is empty")
	errEmptyZipURL    = errors.New("release_zip_url is empty")
	errEmptyFiles     = errors.New("files list is empty")
	errEmptyFileName  = errors.New("file entry has empty name")
	errBadDigest      = errors.New("sha256 digest has invalid length or alphabet")
	errRedistNoSource = errors.New("vc_redist is required but has no url")
)

// Manifest describes the current release of the companion application.
// It is fetched once per run and treated as immutable afterwards.
type Manifest struct {
	// Version is the semantic version of the release.
	Version string `json:"version"`
	// ReleaseZipURL points at the ZIP archive holding the release payload.
	ReleaseZipURL string `json:"release_zip_url"`
	// SHA256 is the hex digest of the archive bytes, case-insensitive.
	SHA256 string `json:"sha256"`
	// Files lists the top-level entries expected inside the archive.
	Files []FileEntry `json:"files"`
	// Prerequisites gates installation on the host environment.
	Prerequisites Prerequisites `json:"prerequisites"`
	// LicenseCheckURL is an optional endpoint consulted by the application
	// itself. The bootstrapper only records it.
	LicenseCheckURL string `json:"license_check_url,omitempty"`
	// Bootstrapper optionally describes a newer bootstrapper binary.
	Bootstrapper *SelfUpdate `json:"bootstrapper,omitempty"`
}

// FileEntry names a payload file expected in the release archive.
type FileEntry struct {
	Name string `json:"name"`
}

// Prerequisites lists host requirements that must hold before installing.
type Prerequisites struct {
	// WindowsVersionMin is the minimum host OS version, dotted-numeric.
	// Empty means no requirement.
	WindowsVersionMin string `json:"windows_version_min,omitempty"`
	// VcRedist describes the required C++ runtime redistributable.
	VcRedist *VcRedist `json:"vc_redist,omitempty"`
}

// VcRedist describes a redistributable runtime dependency.
type VcRedist struct {
	Required bool   `json:"required"`
	URL      string `json:"url"`
}

// SelfUpdate describes a replacement bootstrapper binary.
type SelfUpdate struct {
	URL    string `json:"url"`
	SHA256 string `json:"sha256"`
}

// Validate checks the manifest for structural well-formedness.
// Every defect wraps ErrMalformed so callers can classify with errors.Is.
func (m *Manifest) Validate() error {
	if m.Version == "" {
		return fmt.Errorf("%w: %w", ErrMalformed, errEmptyVersion)
	}

	if m.ReleaseZipURL == "" {
		return fmt.Errorf("%w: %w", ErrMalformed, errEmptyZipURL)
	}

	if !IsHexDigest(m.SHA256) {
		return fmt.Errorf("%w: %w", ErrMalformed, errBadDigest)
	}

	if len(m.Files) == 0 {
		return fmt.Errorf("%w: %w", ErrMalformed, errEmptyFiles)
	}

	for _, file := range m.Files {
		if file.Name == "" {
			return fmt.Errorf("%w: %w", ErrMalformed, errEmptyFileName)
		}
	}

	if redist := m.Prerequisites.VcRedist; redist != nil && redist.Required && redist.URL == "" {
		return fmt.Errorf("%w: %w", ErrMalformed, errRedistNoSource)
	}

	if m.Bootstrapper != nil && !IsHexDigest(m.Bootstrapper.SHA256) {
		return fmt.Errorf("%w: bootstrapper %w", ErrMalformed, errBadDigest)
	}

	return nil
}

// IsHexDigest reports whether s is a well-formed hex SHA-256 digest:
// exactly 64 characters from the hex alphabet, either case.
func IsHexDigest(s string) bool {
	if len(s) != hexDigestLength {
		return false
	}

	for _, r := range s {
		switch {
		case r >= '0' && r <= '9':
		case r >= 'a' && r <= 'f':
		case r >= 'A' && r <= 'F':
		default:
			return false
		}
	}

	return true
}
