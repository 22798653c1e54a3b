// Package packager turns a built application tree into the artifacts the
// bootstrapper consumes: a release ZIP and an installer.json manifest
// carrying the archive's SHA-256 digest and declared file list.
package packager
