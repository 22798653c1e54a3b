package semver

import (
	"errors"
	"fmt"

	goversion "github.com/hashicorp/go-version"
)

// Decision is the outcome of comparing the local install against a remote release.
type Decision int

const (
	// UpToDate means the local install matches or exceeds the remote release.
	UpToDate Decision = iota
	// UpdateAvailable means the remote release is newer than the local install.
	UpdateAvailable
)

// String returns a human-readable decision name.
func (d Decision) String() string {
	switch d {
	case UpToDate:
		return "up-to-date"
	case UpdateAvailable:
		return "update-available"
	default:
		return fmt.Sprintf("decision(%d)", int(d))
	}
}

// ErrUnknownVersion is returned when a version string cannot be ordered.
// The pipeline must abort rather than install a payload whose relative
// ordering could not be established.
var ErrUnknownVersion = errors.New("version ordering could not be established")

// Parse converts a dotted version string into a comparable version.
// Malformed input maps to ErrUnknownVersion.
func Parse(s string) (*goversion.Version, error) {
	v, err := goversion.NewVersion(s)
	if err != nil {
		return nil, fmt.Errorf("%w: %q", ErrUnknownVersion, s)
	}

	return v, nil
}

// Compare decides whether remote is an update over local.
// A nil local (nothing ever installed) always yields UpdateAvailable.
// Missing components are treated as zero by the underlying library,
// so "1.2" and "1.2.0" compare equal.
func Compare(local, remote *goversion.Version) Decision {
	if local == nil {
		return UpdateAvailable
	}

	if remote.GreaterThan(local) {
		return UpdateAvailable
	}

	return UpToDate
}
