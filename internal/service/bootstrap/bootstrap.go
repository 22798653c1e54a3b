package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"time"

	goversion "github.com/hashicorp/go-version"

	"github.com/paradise-app/bootstrapper/internal/config"
	"github.com/paradise-app/bootstrapper/internal/domain/release"
	"github.com/paradise-app/bootstrapper/internal/logger"
	"github.com/paradise-app/bootstrapper/internal/repository/state"
	"github.com/paradise-app/bootstrapper/internal/service/fetcher"
	"github.com/paradise-app/bootstrapper/internal/service/installer"
	"github.com/paradise-app/bootstrapper/internal/service/manifest"
	"github.com/paradise-app/bootstrapper/internal/service/prereq"
	"github.com/paradise-app/bootstrapper/internal/service/semver"
)

// Options are inputs accepted by the pipeline entry point.
type Options struct {
	// ConfigPath is the optional path to the settings YAML file.
	ConfigPath string
	// ManifestURL overrides the configured manifest location.
	ManifestURL string
	// InstallRoot overrides the configured install directory; empty keeps
	// the configured or standard per-user location.
	InstallRoot string
	// DryRun logs what would happen without downloading or installing.
	DryRun bool
	// LaunchAfterInstall hands control to the installed binary on success.
	LaunchAfterInstall bool
	// SkipSelfUpdate disables replacing the bootstrapper binary even when
	// the manifest advertises a newer one.
	SkipSelfUpdate bool
}

// runner holds the wiring for a single pipeline execution.
// It is intentionally unexported; call Run(ctx, opts) from callers.
type runner struct {
	cfg       *config.Config
	opts      *Options
	manifests *manifest.Client
	payloads  *fetcher.Fetcher
	gate      *prereq.Gate
	stateRepo state.Repository
	installs  *installer.Installer
}

// Run executes the bootstrapper pipeline: fetch manifest, compare versions,
// gate prerequisites, download, verify, install, hand off. Each stage is a
// hard gate; any failure aborts without mutating the current install.
func Run(ctx context.Context, opts *Options) (*Outcome, error) {
	ctx = logger.WithName(ctx, "bootstrapper")

	r, err := newRunner(opts)
	if err != nil {
		return nil, err
	}

	outcome, err := r.run(ctx)
	if err != nil {
		logger.ErrorKV(ctx, "Bootstrapper run failed", "error", err)
		return nil, err
	}

	logger.InfoKV(ctx, "Bootstrapper completed", "status", outcome.Status.String(), "version", outcome.Version)

	return outcome, nil
}

// newRunner loads configuration, applies flag overrides and wires the
// pipeline components. A missing settings file is not an error: a fresh host
// runs on defaults plus whatever the flags supply.
func newRunner(opts *Options) (*runner, error) {
	cfg, err := config.LoadOrDefaults(opts.ConfigPath)
	if err != nil {
		return nil, err
	}

	if opts.ManifestURL != "" {
		cfg.ManifestURL = opts.ManifestURL
	}

	if opts.InstallRoot != "" {
		cfg.InstallRoot = opts.InstallRoot
	}

	if err = config.Validate(cfg); err != nil {
		return nil, err
	}

	if cfg.InstallRoot == "" {
		cfg.InstallRoot, err = config.StandardInstallRoot()
		if err != nil {
			return nil, err
		}
	}

	manifestClient := &http.Client{Timeout: cfg.Timeout}

	return &runner{
		cfg:       cfg,
		opts:      opts,
		manifests: manifest.NewClient(manifestClient),
		payloads:  fetcher.New(newDownloadClient(cfg.Timeout)),
		gate:      prereq.NewGate(),
		stateRepo: state.NewFileRepository(cfg.StateFile),
		installs:  installer.New(state.NewFileRepository(cfg.StateFile)),
	}, nil
}

// newDownloadClient builds the client used for payload transfers. Connection
// setup and first-byte waits are bounded by timeout, but the body read is
// not: a large archive may legitimately take longer than any fixed cap, and
// the run context still cancels a stalled transfer.
func newDownloadClient(timeout time.Duration) *http.Client {
	return &http.Client{
		Transport: &http.Transport{
			Proxy:                 http.ProxyFromEnvironment,
			DialContext:           (&net.Dialer{Timeout: timeout}).DialContext,
			TLSHandshakeTimeout:   timeout,
			ResponseHeaderTimeout: timeout,
		},
	}
}

// run walks the hard-gated stage sequence for one attempt.
func (r *runner) run(ctx context.Context) (*Outcome, error) {
	current, err := r.loadState(ctx)
	if err != nil {
		return nil, err
	}

	m, err := r.manifests.Fetch(ctx, r.cfg.ManifestURL)
	if err != nil {
		return nil, err
	}

	if m.LicenseCheckURL != "" {
		logger.DebugKV(ctx, "Manifest declares a license check endpoint", "url", m.LicenseCheckURL)
	}

	if m.Bootstrapper != nil && !r.opts.SkipSelfUpdate {
		r.maybeSelfUpdate(ctx, m.Bootstrapper)
	}

	decision, remote, err := r.decide(ctx, current, m)
	if err != nil {
		return nil, err
	}

	if decision == semver.UpToDate {
		logger.InfoKV(ctx, "Local install is current", "version", current.InstalledVersion)

		return &Outcome{Status: StatusUpToDate, Version: current.InstalledVersion}, nil
	}

	if err = r.checkPrerequisites(ctx, m); err != nil {
		return nil, err
	}

	if r.opts.DryRun {
		logger.InfoKV(ctx, "Dry run: would download and install",
			"url", m.ReleaseZipURL, "version", remote.Original(), "root", r.cfg.InstallRoot)

		return &Outcome{Status: StatusDryRun, Version: m.Version}, nil
	}

	installedVersion, err := r.downloadAndInstall(ctx, m, current)
	if err != nil {
		return nil, err
	}

	if r.opts.LaunchAfterInstall {
		if err = launchInstalled(ctx, r.cfg.InstallRoot, m); err != nil {
			logger.WarnKV(ctx, "Installed but could not start the application", "error", err)
		}
	}

	return &Outcome{Status: StatusInstalled, Version: installedVersion}, nil
}

// loadState reads the persisted install state, treating a missing file as a
// fresh host. A recorded root different from the chosen one means the user
// picked a new location; the recorded version does not apply there.
func (r *runner) loadState(ctx context.Context) (*release.InstallState, error) {
	current, err := r.stateRepo.Load(ctx)

	switch {
	case errors.Is(err, state.ErrNotFound):
		current = &release.InstallState{InstallRoot: r.cfg.InstallRoot}
	case err != nil:
		return nil, err
	case current.InstallRoot != r.cfg.InstallRoot:
		logger.InfoKV(ctx, "Install root changed, treating as fresh install",
			"recorded", current.InstallRoot, "chosen", r.cfg.InstallRoot)

		current = &release.InstallState{InstallRoot: r.cfg.InstallRoot}
	}

	return current, nil
}

// decide orders the local install against the remote release.
// Malformed versions on either side abort the pipeline.
func (r *runner) decide(
	ctx context.Context,
	current *release.InstallState,
	m *release.Manifest,
) (semver.Decision, *goversion.Version, error) {
	remote, err := semver.Parse(m.Version)
	if err != nil {
		return 0, nil, err
	}

	var local *goversion.Version

	if !current.IsFresh() {
		local, err = semver.Parse(current.InstalledVersion)
		if err != nil {
			return 0, nil, err
		}
	}

	decision := semver.Compare(local, remote)
	logger.InfoKV(ctx, "Version comparison",
		"local", current.InstalledVersion, "remote", m.Version, "decision", decision.String())

	return decision, remote, nil
}

// checkPrerequisites runs the gate, attempting redistributable remediation
// once before giving up. The main install never proceeds while a
// prerequisite remains unsatisfied.
func (r *runner) checkPrerequisites(ctx context.Context, m *release.Manifest) error {
	err := r.gate.Check(ctx, m.Prerequisites)
	if err == nil {
		return nil
	}

	var prereqErr *prereq.Error

	if !errors.As(err, &prereqErr) || prereqErr.Reason != prereq.ReasonMissingRedistributable {
		return err
	}

	if r.opts.DryRun {
		logger.Info(ctx, "Dry run: skipping redistributable remediation")
		return err
	}

	if remErr := r.remediateRedist(ctx, prereqErr.RemediationURL); remErr != nil {
		return fmt.Errorf("remediate redistributable: %w", remErr)
	}

	// Re-check after remediation; still unsatisfied is terminal.
	return r.gate.Check(ctx, m.Prerequisites)
}

// downloadAndInstall fetches the payload, verifies its digest and promotes it.
// The artifact never reaches the installer before verification succeeds, and
// it is deleted whatever happens.
func (r *runner) downloadAndInstall(
	ctx context.Context,
	m *release.Manifest,
	current *release.InstallState,
) (string, error) {
	artifact, err := r.payloads.Download(ctx, m.ReleaseZipURL)
	if err != nil {
		return "", err
	}

	defer func() {
		_ = artifact.Remove()
	}()

	if err = verifyArtifact(ctx, artifact, m.SHA256); err != nil {
		return "", err
	}

	return r.installs.Install(ctx, artifact.Path, m, current)
}
