// Package state implements persistence for the local install state.
//
// The FileRepository stores and loads the state as JSON on disk and exposes a
// Repository interface the install pipeline depends on.
package state
