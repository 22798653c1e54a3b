package bootstrap

import "fmt"

// Status is the terminal condition of a pipeline run.
type Status int

const (
	// StatusUpToDate means no action was needed.
	StatusUpToDate Status = iota
	// StatusInstalled means a release was downloaded, verified and promoted.
	StatusInstalled
	// StatusDryRun means an update was available but nothing was changed.
	StatusDryRun
)

// String returns a human-readable status name.
func (s Status) String() string {
	switch s {
	case StatusUpToDate:
		return "up-to-date"
	case StatusInstalled:
		return "installed"
	case StatusDryRun:
		return "dry-run"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Outcome is what a completed pipeline run reports to its caller.
type Outcome struct {
	// Status is the terminal condition.
	Status Status
	// Version is the release the outcome refers to.
	Version string
}
