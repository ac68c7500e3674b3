package mad

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/mad/core/testutil"
)

func TestManifest_RoundTrip(t *testing.T) {
	t.Parallel()

	path := writeSample(t)
	a, err := Open(path)
	require.NoError(t, err)
	defer a.Close()

	m, err := NewManifest(a)
	require.NoError(t, err)
	assert.Equal(t, uint32(ManifestVersion), m.Version)
	assert.Equal(t, path, m.Source)
	require.Len(t, m.Entries, len(sampleFiles))
	for i, f := range sampleFiles {
		assert.Equal(t, f.Name, m.Entries[i].Name)
		assert.Equal(t, digest.FromBytes(f.Data), m.Entries[i].Digest)
	}
	for i := range sampleFiles {
		assert.False(t, a.Loaded(i))
	}

	data, err := m.MarshalBinary()
	require.NoError(t, err)
	parsed, err := ParseManifest(data)
	require.NoError(t, err)
	assert.Equal(t, m, parsed)
}

func TestManifest_Layout(t *testing.T) {
	t.Parallel()

	m := &Manifest{Version: ManifestVersion, Layout: LayoutReserved}
	data, err := m.MarshalBinary()
	require.NoError(t, err)
	parsed, err := ParseManifest(data)
	require.NoError(t, err)
	assert.Equal(t, LayoutReserved, parsed.Layout)
	assert.Empty(t, parsed.Entries)
}

func TestParseManifest_Invalid(t *testing.T) {
	t.Parallel()

	one := []ManifestEntry{{Name: "a", Digest: digest.FromString("a")}}
	tests := map[string][]byte{
		"empty":       nil,
		"short":       []byte("MADM"),
		"garbage":     []byte("this is not a flatbuffer at all"),
		"truncated":   mustMarshal(t, &Manifest{Version: ManifestVersion, Layout: LayoutStandard, Entries: one})[:12],
		"bad digest":  mustMarshal(t, &Manifest{Version: ManifestVersion, Layout: LayoutStandard, Entries: []ManifestEntry{{Name: "a", Digest: "sha256:nothex"}}}),
		"bad version": mustMarshal(t, &Manifest{Version: 9, Layout: LayoutStandard}),
		"bad layout":  mustMarshal(t, &Manifest{Version: ManifestVersion, Layout: Layout{NameSize: 16, ReservedSize: 2}}),
	}
	for name, data := range tests {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			m, err := ParseManifest(data)
			require.ErrorIs(t, err, ErrInvalidManifest)
			assert.Nil(t, m)
		})
	}
}

func mustMarshal(t *testing.T, m *Manifest) []byte {
	t.Helper()
	data, err := m.MarshalBinary()
	require.NoError(t, err)
	return data
}

func TestManifest_Verify(t *testing.T) {
	t.Parallel()

	m, err := NewManifest(loadSample(t))
	require.NoError(t, err)

	require.NoError(t, m.Verify("cow.bmp", []byte("moo")))
	require.ErrorIs(t, m.Verify("cow.bmp", []byte("baa")), ErrDigestMismatch)
	require.Error(t, m.Verify("horse.bmp", []byte("neigh")))
}

func TestManifest_VerifyArchive(t *testing.T) {
	t.Parallel()

	a := loadSample(t)
	m, err := NewManifest(a)
	require.NoError(t, err)
	require.NoError(t, m.VerifyArchive(a))

	changed := testutil.StandardArchive(
		testutil.File{Name: "pig.hir", Data: []byte("OINK OINK")},
		sampleFiles[1], sampleFiles[2], sampleFiles[3],
	)
	b, err := Load(testutil.NewMockSource(changed))
	require.NoError(t, err)
	require.ErrorIs(t, m.VerifyArchive(b), ErrDigestMismatch)

	reordered := testutil.StandardArchive(sampleFiles[1], sampleFiles[0], sampleFiles[2], sampleFiles[3])
	c, err := Load(testutil.NewMockSource(reordered))
	require.NoError(t, err)
	require.ErrorIs(t, m.VerifyArchive(c), ErrDigestMismatch)

	short := testutil.StandardArchive(sampleFiles[0])
	d, err := Load(testutil.NewMockSource(short))
	require.NoError(t, err)
	require.ErrorIs(t, m.VerifyArchive(d), ErrDigestMismatch)
}

func TestManifest_Files(t *testing.T) {
	t.Parallel()

	m, err := NewManifest(loadSample(t))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "out", "sample.manifest")
	require.NoError(t, m.WriteFile(path))

	got, err := ReadManifestFile(path)
	require.NoError(t, err)
	assert.Equal(t, m, got)

	bad := filepath.Join(t.TempDir(), "bad.manifest")
	require.NoError(t, os.WriteFile(bad, []byte("nope nope nope"), 0o600))
	_, err = ReadManifestFile(bad)
	require.ErrorIs(t, err, ErrInvalidManifest)
}
