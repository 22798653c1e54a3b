// Package hashcheck is the integrity gate between bytes received from the
// network and bytes trusted enough to extract: it computes SHA-256 digests of
// downloaded artifacts and compares them against manifest-declared values.
package hashcheck
