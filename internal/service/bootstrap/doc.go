// Package bootstrap composes the update pipeline: manifest fetch, version
// comparison, prerequisite gating, payload download, digest verification and
// staged installation, in that order, with every stage a hard gate.
//
// The package owns no retry policy; callers decide whether a failed run is
// worth repeating. All failures leave the live install and the persisted
// state untouched.
package bootstrap
