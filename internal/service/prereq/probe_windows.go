//go:build windows

package prereq

import (
	"context"
	"os"
	"path/filepath"
)

// vcRuntimeDLL is the marker the VC++ redistributable installs system-wide.
const vcRuntimeDLL = "vcruntime140.dll"

// fileProbe reports redistributable presence by checking for its runtime DLL.
type fileProbe struct{}

// Present looks for the VC++ runtime DLL in the system directory.
func (fileProbe) Present(_ context.Context) (bool, error) {
	systemRoot := os.Getenv("SystemRoot")
	if systemRoot == "" {
		systemRoot = `C:\Windows`
	}

	_, err := os.Stat(filepath.Join(systemRoot, "System32", vcRuntimeDLL))
	if err == nil {
		return true, nil
	}

	if os.IsNotExist(err) {
		return false, nil
	}

	return false, err
}

// defaultRedistProbe returns the Windows DLL probe.
func defaultRedistProbe() RedistProbe {
	return fileProbe{}
}
