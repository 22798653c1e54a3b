// Package release defines the remote release manifest and the local install
// state, the two data shapes the update pipeline moves between.
package release
