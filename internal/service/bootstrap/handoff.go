package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/paradise-app/bootstrapper/internal/domain/release"
	"github.com/paradise-app/bootstrapper/internal/logger"
)

var (
	errNoExecutable  = errors.New("manifest declares no executable file")
	errUnsupportedOS = errors.New("os not supported")
)

// remediateRedist downloads and runs the redistributable installer declared
// by the manifest, waiting for it to finish before the gate is re-checked.
func (r *runner) remediateRedist(ctx context.Context, url string) error {
	logger.InfoKV(ctx, "Fetching redistributable installer", "url", url)

	artifact, err := r.payloads.Download(ctx, url)
	if err != nil {
		return err
	}

	defer func() {
		_ = artifact.Remove()
	}()

	logger.Info(ctx, "Running redistributable installer")

	// /install /quiet /norestart is the documented silent invocation.
	cmd := exec.CommandContext(ctx, artifact.Path, "/install", "/quiet", "/norestart")
	if err = cmd.Run(); err != nil {
		return fmt.Errorf("run redistributable installer: %w", err)
	}

	return nil
}

// launchInstalled starts the application's primary executable from the
// install root. Working directory and arguments are not part of the
// contract; the binary just has to exist and be executable there.
func launchInstalled(ctx context.Context, installRoot string, m *release.Manifest) error {
	name, err := primaryExecutable(m)
	if err != nil {
		return err
	}

	target := filepath.Join(installRoot, name)
	logger.InfoKV(ctx, "Handing off to installed application", "executable", target)

	osLC := strings.ToLower(runtime.GOOS)
	switch {
	case strings.Contains(osLC, "linux") || strings.Contains(osLC, "darwin"):
		return exec.CommandContext(ctx, target).Start()
	case strings.Contains(osLC, "windows"):
		return exec.CommandContext(ctx, "cmd.exe", "/C", "start", "", target).Start()
	default:
		return fmt.Errorf("%s: %w", runtime.GOOS, errUnsupportedOS)
	}
}

// primaryExecutable picks the file the handoff should start: the first
// declared .exe, falling back to the first declared file.
func primaryExecutable(m *release.Manifest) (string, error) {
	if len(m.Files) == 0 {
		return "", errNoExecutable
	}

	for _, file := range m.Files {
		if strings.HasSuffix(strings.ToLower(file.Name), ".exe") {
			return file.Name, nil
		}
	}

	return m.Files[0].Name, nil
}
