// Package version exposes build metadata injected at compile time and a
// cobra subcommand that prints it.
package version
