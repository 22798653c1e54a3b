package installer

import (
	"context"
	"os"

	"github.com/mitchellh/go-ps"

	"github.com/paradise-app/bootstrapper/internal/domain/release"
	"github.com/paradise-app/bootstrapper/internal/logger"
)

// terminateReleaseProcesses kills running processes whose executable name
// matches a payload file, so the promotion rename is not blocked by open
// file handles. The bootstrapper's own process is never touched.
func terminateReleaseProcesses(ctx context.Context, files []release.FileEntry) error {
	names := make(map[string]struct{}, len(files))
	for _, file := range files {
		names[file.Name] = struct{}{}
	}

	processList, err := ps.Processes()
	if err != nil {
		return err
	}

	thisProcessID := os.Getpid()

	for _, process := range processList {
		processID := process.Pid()
		if processID == thisProcessID {
			continue
		}

		if _, found := names[process.Executable()]; !found {
			continue
		}

		logger.InfoKV(ctx, "Terminating running release process",
			"pid", processID, "executable", process.Executable())

		runningProcess, findErr := os.FindProcess(processID)
		if findErr != nil {
			return findErr
		}

		if err = runningProcess.Kill(); err != nil {
			return err
		}
	}

	return nil
}
