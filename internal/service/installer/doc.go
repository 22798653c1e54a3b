// Package installer extracts a verified release archive into a staging
// directory and atomically promotes it into the install root.
//
// The previous install is kept as a sibling backup until the new state is
// recorded; any failure rolls the root and the persisted state back to their
// pre-attempt values. A pid-stamped lockfile next to the install root keeps
// concurrent bootstrapper invocations from promoting simultaneously.
package installer
