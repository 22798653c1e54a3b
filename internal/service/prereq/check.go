package prereq

import (
	"context"
	"fmt"
	"strings"

	"github.com/shirou/gopsutil/v4/host"

	"github.com/paradise-app/bootstrapper/internal/domain/release"
	"github.com/paradise-app/bootstrapper/internal/logger"
	"github.com/paradise-app/bootstrapper/internal/service/semver"
)

// Reason classifies why the host fails a prerequisite.
type Reason int

const (
	// ReasonOSTooOld means the host OS version is below the manifest minimum.
	ReasonOSTooOld Reason = iota
	// ReasonMissingRedistributable means a required runtime is absent.
	// This one is advisory: the orchestrator may remediate and re-check.
	ReasonMissingRedistributable
)

// Error reports an unsatisfied prerequisite.
type Error struct {
	// Reason classifies the failure.
	Reason Reason
	// Detail is a human-readable explanation.
	Detail string
	// RemediationURL points at an installer that can satisfy the
	// prerequisite, when the manifest provides one.
	RemediationURL string
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("prerequisite unsatisfied: %s", e.Detail)
}

// HostVersionFunc reports the host OS version as a dotted version string.
type HostVersionFunc func(ctx context.Context) (string, error)

// RedistProbe reports whether the redistributable runtime is present on the host.
type RedistProbe interface {
	Present(ctx context.Context) (bool, error)
}

// Gate validates host prerequisites before an install may proceed.
type Gate struct {
	hostVersion HostVersionFunc
	probe       RedistProbe
}

// Option customizes a Gate; used by tests to stub host facts.
type Option func(*Gate)

// WithHostVersion overrides how the host OS version is detected.
func WithHostVersion(fn HostVersionFunc) Option {
	return func(g *Gate) { g.hostVersion = fn }
}

// WithRedistProbe overrides how redistributable presence is detected.
func WithRedistProbe(probe RedistProbe) Option {
	return func(g *Gate) { g.probe = probe }
}

// NewGate creates a gate with platform defaults.
func NewGate(opts ...Option) *Gate {
	gate := &Gate{
		hostVersion: platformVersion,
		probe:       defaultRedistProbe(),
	}

	for _, opt := range opts {
		opt(gate)
	}

	return gate
}

// Check validates the manifest prerequisites against the host.
// It returns nil when satisfied and *Error when not. Version strings that
// cannot be ordered abort with semver.ErrUnknownVersion rather than guessing.
func (g *Gate) Check(ctx context.Context, prereqs release.Prerequisites) error {
	if prereqs.WindowsVersionMin != "" {
		if err := g.checkOSVersion(ctx, prereqs.WindowsVersionMin); err != nil {
			return err
		}
	}

	if redist := prereqs.VcRedist; redist != nil && redist.Required {
		if err := g.checkRedist(ctx, redist); err != nil {
			return err
		}
	}

	return nil
}

// checkOSVersion compares the host OS version against the manifest minimum
// using the same ordering rules as release version comparison.
func (g *Gate) checkOSVersion(ctx context.Context, minimum string) error {
	required, err := semver.Parse(minimum)
	if err != nil {
		return err
	}

	current, err := g.hostVersion(ctx)
	if err != nil {
		return fmt.Errorf("detect host OS version: %w", err)
	}

	current = normalizeHostVersion(current)

	actual, err := semver.Parse(current)
	if err != nil {
		return err
	}

	logger.InfoKV(ctx, "Checking OS version requirement", "minimum", minimum, "current", current)

	if actual.LessThan(required) {
		return &Error{
			Reason: ReasonOSTooOld,
			Detail: fmt.Sprintf("OS version %s is below required minimum %s", current, minimum),
		}
	}

	return nil
}

// checkRedist verifies the redistributable runtime is present.
func (g *Gate) checkRedist(ctx context.Context, redist *release.VcRedist) error {
	present, err := g.probe.Present(ctx)
	if err != nil {
		return fmt.Errorf("probe redistributable: %w", err)
	}

	if present {
		return nil
	}

	logger.WarnKV(ctx, "Required redistributable is missing", "remediation", redist.URL)

	return &Error{
		Reason:         ReasonMissingRedistributable,
		Detail:         "required redistributable runtime is not installed",
		RemediationURL: redist.URL,
	}
}

// platformVersion reads the host OS version via gopsutil. KernelVersion is
// preferred: on Windows it is the clean dotted build string, while
// PlatformVersion carries a trailing "Build N.N" annotation.
func platformVersion(ctx context.Context) (string, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return "", err
	}

	if info.KernelVersion != "" {
		return info.KernelVersion, nil
	}

	return info.PlatformVersion, nil
}

// normalizeHostVersion keeps only the leading dotted-numeric part of a
// reported OS version, dropping annotations after the first space.
func normalizeHostVersion(raw string) string {
	raw = strings.TrimSpace(raw)

	if i := strings.IndexByte(raw, ' '); i >= 0 {
		return raw[:i]
	}

	return raw
}
