package semver

import (
	"testing"

	"github.com/stretchr/testify/require"
)

// TestParse_Malformed maps unparseable versions to ErrUnknownVersion.
func TestParse_Malformed(t *testing.T) {
	t.Parallel()

	for _, bad := range []string{"", "abc", "1.x.0", "not-a-version"} {
		_, err := Parse(bad)
		require.ErrorIs(t, err, ErrUnknownVersion, bad)
	}
}

// TestCompare_NilLocal always yields UpdateAvailable on a fresh host.
func TestCompare_NilLocal(t *testing.T) {
	t.Parallel()

	remote, err := Parse("1.0.1")
	require.NoError(t, err)
	require.Equal(t, UpdateAvailable, Compare(nil, remote))
}

// TestCompare_Ordering checks asymmetry and dotted-numeric precedence.
func TestCompare_Ordering(t *testing.T) {
	t.Parallel()

	cases := []struct {
		local, remote string
		want          Decision
	}{
		{"1.0.0", "1.0.1", UpdateAvailable},
		{"1.0.1", "1.0.0", UpToDate},
		{"1.0.0", "1.0.0", UpToDate},
		{"1.2", "1.2.0", UpToDate},
		{"1.2.0", "1.2", UpToDate},
		{"1.9.0", "1.10.0", UpdateAvailable},
		{"0.9.9", "1.0.0", UpdateAvailable},
		{"2.0.0", "1.9.9", UpToDate},
	}

	for _, tc := range cases {
		local, err := Parse(tc.local)
		require.NoError(t, err)

		remote, err := Parse(tc.remote)
		require.NoError(t, err)

		require.Equal(t, tc.want, Compare(local, remote), "%s vs %s", tc.local, tc.remote)
	}
}

// TestCompare_Asymmetry ensures a<b never reports UpToDate in both directions.
func TestCompare_Asymmetry(t *testing.T) {
	t.Parallel()

	a, err := Parse("1.0.0")
	require.NoError(t, err)

	b, err := Parse("1.0.1")
	require.NoError(t, err)

	require.Equal(t, UpdateAvailable, Compare(a, b))
	require.Equal(t, UpToDate, Compare(b, a))
}
