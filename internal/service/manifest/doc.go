// Package manifest retrieves the remote release manifest over HTTPS and
// validates it into a typed descriptor. It is a pure fetch-and-validate step:
// no retries, no side effects beyond the network read.
package manifest
