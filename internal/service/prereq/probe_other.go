//go:build !windows

package prereq

import "context"

// noopProbe always reports the redistributable as present: the VC++ runtime
// is a Windows-only dependency and does not apply to other hosts.
type noopProbe struct{}

// Present reports true unconditionally.
func (noopProbe) Present(_ context.Context) (bool, error) {
	return true, nil
}

// defaultRedistProbe returns the non-Windows no-op probe.
func defaultRedistProbe() RedistProbe {
	return noopProbe{}
}
