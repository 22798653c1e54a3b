// Package prereq gates installation on the host environment: minimum OS
// version and required redistributable runtime, per the release manifest.
package prereq
