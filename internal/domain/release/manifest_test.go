package release

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

// validManifest returns a manifest that passes Validate; tests mutate copies of it.
func validManifest() *Manifest {
	return &Manifest{
		Version:       "1.0.1",
		ReleaseZipURL: "https://updates.local/release.zip",
		SHA256:        strings.Repeat("ab", 32),
		Files:         []FileEntry{{Name: "paradise.exe"}, {Name: "assets"}},
	}
}

// TestValidate_OK accepts a well-formed manifest, including uppercase digests.
func TestValidate_OK(t *testing.T) {
	t.Parallel()

	m := validManifest()
	require.NoError(t, m.Validate())

	m.SHA256 = strings.ToUpper(m.SHA256)
	require.NoError(t, m.Validate())
}

// TestValidate_Malformed rejects every structural defect with ErrMalformed.
func TestValidate_Malformed(t *testing.T) {
	t.Parallel()

	cases := map[string]func(m *Manifest){
		"empty version":       func(m *Manifest) { m.Version = "" },
		"empty zip url":       func(m *Manifest) { m.ReleaseZipURL = "" },
		"empty digest":        func(m *Manifest) { m.SHA256 = "" },
		"short digest":        func(m *Manifest) { m.SHA256 = "abcdef" },
		"oversized digest":    func(m *Manifest) { m.SHA256 += "a" },
		"non-hex digest":      func(m *Manifest) { m.SHA256 = strings.Repeat("zz", 32) },
		"no files":            func(m *Manifest) { m.Files = nil },
		"unnamed file":        func(m *Manifest) { m.Files = []FileEntry{{}} },
		"redist without url":  func(m *Manifest) { m.Prerequisites.VcRedist = &VcRedist{Required: true} },
		"bad self-update sum": func(m *Manifest) { m.Bootstrapper = &SelfUpdate{URL: "https://x/y", SHA256: "nope"} },
	}

	for name, mutate := range cases {
		mutate := mutate
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			m := validManifest()
			mutate(m)

			err := m.Validate()
			require.ErrorIs(t, err, ErrMalformed)
		})
	}
}

// TestIsHexDigest covers length and alphabet checks.
func TestIsHexDigest(t *testing.T) {
	t.Parallel()

	require.True(t, IsHexDigest(strings.Repeat("0f", 32)))
	require.True(t, IsHexDigest(strings.Repeat("AF", 32)))
	require.False(t, IsHexDigest(strings.Repeat("0f", 31)))
	require.False(t, IsHexDigest(strings.Repeat("0f", 32)+"a"))
	require.False(t, IsHexDigest(strings.Repeat("0g", 32)))
}

// TestInstallStateIsFresh treats nil and empty-version states as never installed.
func TestInstallStateIsFresh(t *testing.T) {
	t.Parallel()

	var nilState *InstallState
	require.True(t, nilState.IsFresh())
	require.True(t, (&InstallState{InstallRoot: "/opt/app"}).IsFresh())
	require.False(t, (&InstallState{InstalledVersion: "1.0.0"}).IsFresh())
}
