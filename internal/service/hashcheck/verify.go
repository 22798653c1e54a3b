package hashcheck

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

var (
	// ErrMismatch is returned when the computed digest differs from the
	// manifest-declared one. Callers must discard the artifact and abort.
	ErrMismatch = errors.New("sha256 digest mismatch")

	// errBadExpectedDigest is returned when the expected digest is not
	// valid hex of the right length. Manifest validation should have
	// caught this already; failing closed here keeps the gate airtight.
	errBadExpectedDigest = errors.New("expected digest is not a valid sha256 hex string")
)

// VerifyFile computes the SHA-256 digest of the entire file at path and
// compares it against expectedHex, case-insensitively, in constant time.
// Partial-prefix checks are deliberately impossible: the digest is only
// available after the full stream has been consumed.
func VerifyFile(path, expectedHex string) error {
	expected, err := hex.DecodeString(strings.ToLower(expectedHex))
	if err != nil || len(expected) != sha256.Size {
		return errBadExpectedDigest
	}

	computed, err := FileDigest(path)
	if err != nil {
		return err
	}

	if !hmac.Equal(computed, expected) {
		return fmt.Errorf("%w: expected %s, got %s",
			ErrMismatch, strings.ToLower(expectedHex), hex.EncodeToString(computed))
	}

	return nil
}

// FileDigest returns the raw SHA-256 digest of the file's full contents.
// The file is streamed, not slurped, so archive size does not bound memory.
func FileDigest(path string) ([]byte, error) {
	file, err := os.Open(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("open file for hashing: %w", err)
	}

	defer func() {
		_ = file.Close()
	}()

	hasher := sha256.New()
	if _, err = io.Copy(hasher, file); err != nil {
		return nil, fmt.Errorf("hash file contents: %w", err)
	}

	return hasher.Sum(nil), nil
}

// HexFileDigest returns the lowercase hex SHA-256 digest of the file.
func HexFileDigest(path string) (string, error) {
	digest, err := FileDigest(path)
	if err != nil {
		return "", err
	}

	return hex.EncodeToString(digest), nil
}
