package hashcheck

import (
	"crypto/sha256"
	"encoding/hex"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// writeFixture writes contents to a temp file and returns its path and hex digest.
func writeFixture(t *testing.T, contents []byte) (string, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "artifact.zip")
	require.NoError(t, os.WriteFile(path, contents, 0o600))

	digest := sha256.Sum256(contents)

	return path, hex.EncodeToString(digest[:])
}

// TestVerifyFile_Match accepts matching digests in either case.
func TestVerifyFile_Match(t *testing.T) {
	t.Parallel()

	path, digest := writeFixture(t, []byte("release payload"))

	require.NoError(t, VerifyFile(path, digest))
	require.NoError(t, VerifyFile(path, strings.ToUpper(digest)))
}

// TestVerifyFile_Mismatch rejects a wrong digest with ErrMismatch.
func TestVerifyFile_Mismatch(t *testing.T) {
	t.Parallel()

	path, _ := writeFixture(t, []byte("release payload"))

	err := VerifyFile(path, strings.Repeat("aa", 32))
	require.ErrorIs(t, err, ErrMismatch)
}

// TestVerifyFile_BadExpected fails closed on malformed expected digests.
func TestVerifyFile_BadExpected(t *testing.T) {
	t.Parallel()

	path, _ := writeFixture(t, []byte("x"))

	for _, bad := range []string{"", "abcd", strings.Repeat("zz", 32), strings.Repeat("ab", 33)} {
		err := VerifyFile(path, bad)
		require.Error(t, err, bad)
		require.NotErrorIs(t, err, ErrMismatch, bad)
	}
}

// TestVerifyFile_MissingFile propagates filesystem errors.
func TestVerifyFile_MissingFile(t *testing.T) {
	t.Parallel()

	err := VerifyFile(filepath.Join(t.TempDir(), "absent"), strings.Repeat("ab", 32))
	require.Error(t, err)
}

// TestHexFileDigest matches the standalone digest helper with the verifier.
func TestHexFileDigest(t *testing.T) {
	t.Parallel()

	path, digest := writeFixture(t, []byte("hello"))

	got, err := HexFileDigest(path)
	require.NoError(t, err)
	require.Equal(t, digest, got)
}
