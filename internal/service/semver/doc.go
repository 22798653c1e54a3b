// Package semver decides whether a remote release is newer than the local
// install using standard dotted-numeric precedence.
package semver
