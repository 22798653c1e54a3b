// Package config defines bootstrapper settings and provides helpers to load,
// validate and save them in YAML format.
//
// The Config type holds the manifest URL, the install root and local paths
// for state and logs.
package config
