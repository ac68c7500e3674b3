package mad

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	madcore "github.com/meigma/mad/core"
)

var pigFiles = []madcore.BuildEntry{
	{Name: "pig.hir", Data: []byte("oink oink")},
	{Name: "cow.bmp", Data: []byte("moo")},
	{Name: "hen.wav", Data: []byte("cluck")},
}

func writePackage(t *testing.T, path string, entries []madcore.BuildEntry) {
	t.Helper()
	require.NoError(t, madcore.WriteFile(path, entries))
}

func TestOutputDir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{"Chars/pig.mad", "Chars/pig"},
		{"Maps/map01.MTD", "Maps/map01"},
		{"archive.tar.mad", "archive.tar"},
		{"Chars/noext", "Chars/noext.d"},
		{"Chars/.mad", "Chars/.mad.d"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, filepath.FromSlash(tt.want), OutputDir(filepath.FromSlash(tt.path)))
		})
	}
}

func TestUnpackFile(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "pig.mad")
	writePackage(t, path, pigFiles)

	report, err := NewUnpacker().UnpackFile(context.Background(), path)
	require.NoError(t, err)
	require.NoError(t, report.Err)

	assert.Equal(t, filepath.Join(dir, "pig"), report.Dir)
	assert.False(t, report.Skipped)
	assert.Equal(t, 3, report.Stats.Extracted)
	assert.Equal(t, uint64(17), report.Stats.TotalBytes)
	for _, f := range pigFiles {
		got, err := os.ReadFile(filepath.Join(report.Dir, f.Name))
		require.NoError(t, err)
		assert.Equal(t, f.Data, got)
	}

	require.NotNil(t, report.Manifest)
	m, err := madcore.ReadManifestFile(report.Dir + ManifestExt)
	require.NoError(t, err)
	require.Len(t, m.Entries, 3)
	for i, f := range pigFiles {
		assert.Equal(t, f.Name, m.Entries[i].Name)
	}
}

func TestUnpackFile_RebuildFromManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "pig.mad")
	writePackage(t, path, pigFiles)
	original, err := os.ReadFile(path)
	require.NoError(t, err)

	report, err := NewUnpacker().UnpackFile(context.Background(), path)
	require.NoError(t, err)

	m, err := madcore.ReadManifestFile(report.Dir + ManifestExt)
	require.NoError(t, err)
	entries, err := madcore.CollectDir(report.Dir, m)
	require.NoError(t, err)
	rebuilt, err := madcore.Build(entries)
	require.NoError(t, err)
	assert.Equal(t, original, rebuilt)
}

func TestUnpackFile_NoManifest(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "pig.mad")
	writePackage(t, path, pigFiles)

	report, err := NewUnpacker(WithManifest(false)).UnpackFile(context.Background(), path)
	require.NoError(t, err)
	assert.Nil(t, report.Manifest)
	assert.NoFileExists(t, report.Dir+ManifestExt)
}

func TestUnpackFile_Skipped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "MCAP.mad")
	writePackage(t, path, pigFiles)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))

	report, err := NewUnpacker(WithLogger(logger)).UnpackFile(context.Background(), path)
	require.NoError(t, err)
	assert.True(t, report.Skipped)
	assert.Empty(t, report.Dir)
	assert.NoDirExists(t, filepath.Join(dir, "MCAP"))
	assert.Contains(t, logs.String(), "skipping package")
}

func TestUnpackFile_SkipListDisabled(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "mcap.mad")
	writePackage(t, path, pigFiles)

	report, err := NewUnpacker(WithSkipNames()).UnpackFile(context.Background(), path)
	require.NoError(t, err)
	assert.False(t, report.Skipped)
	assert.DirExists(t, filepath.Join(dir, "mcap"))
}

func TestUnpackFile_Mapped(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "pig.mad")
	writePackage(t, path, pigFiles)

	report, err := NewUnpacker(WithMapped(true)).UnpackFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Stats.Extracted)
}

func TestUnpackFile_Idempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "pig.mad")
	writePackage(t, path, pigFiles)
	u := NewUnpacker()

	_, err := u.UnpackFile(context.Background(), path)
	require.NoError(t, err)

	report, err := u.UnpackFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Stats.Extracted)
	assert.Equal(t, 3, report.Stats.Skipped)

	report, err = NewUnpacker(WithOverwrite(true)).UnpackFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, 3, report.Stats.Extracted)
}

func TestUnpackFile_Corrupt(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "bad.mad")
	data := bytes.Repeat([]byte{0x01}, 48)
	require.NoError(t, os.WriteFile(path, data, 0o644))

	report, err := NewUnpacker().UnpackFile(context.Background(), path)
	require.ErrorIs(t, err, ErrCorruptIndex)
	assert.ErrorIs(t, report.Err, ErrCorruptIndex)
	assert.NoDirExists(t, filepath.Join(dir, "bad"))
}

func TestUnpackFile_Missing(t *testing.T) {
	t.Parallel()

	_, err := NewUnpacker().UnpackFile(context.Background(), filepath.Join(t.TempDir(), "nope.mad"))
	assert.ErrorIs(t, err, ErrOpenFailed)
}

func TestUnpackTree(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	chars := filepath.Join(root, "Chars")
	maps := filepath.Join(root, "Maps")
	writePackage(t, filepath.Join(chars, "pig.mad"), pigFiles)
	writePackage(t, filepath.Join(chars, "mcap.mad"), pigFiles)
	writePackage(t, filepath.Join(maps, "map01.mtd"), []madcore.BuildEntry{
		{Name: "map01.bsp", Data: []byte("level")},
	})
	require.NoError(t, os.WriteFile(filepath.Join(maps, "broken.mtd"), bytes.Repeat([]byte{0x01}, 48), 0o644))

	var (
		mu     sync.Mutex
		events []ProgressEvent
	)
	u := NewUnpacker(
		WithWorkers(2),
		WithProgress(func(ev ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			events = append(events, ev)
		}))

	summary, err := u.UnpackTree(context.Background(), chars, maps, filepath.Join(root, "Missing"))
	require.NoError(t, err)

	require.Len(t, summary.Archives, 4)
	assert.Equal(t, 2, summary.Unpacked)
	assert.Equal(t, 1, summary.Skipped)
	assert.Equal(t, 1, summary.Failed)
	assert.Equal(t, 4, summary.Stats.Extracted)
	assert.Len(t, summary.ScanErrors, 1)

	err = summary.Err()
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrCorruptIndex)
	assert.ErrorIs(t, err, os.ErrNotExist)

	assert.FileExists(t, filepath.Join(chars, "pig", "cow.bmp"))
	assert.FileExists(t, filepath.Join(maps, "map01", "map01.bsp"))
	assert.FileExists(t, filepath.Join(maps, "map01"+ManifestExt))

	var scanned, unpacked int
	for _, ev := range events {
		switch {
		case ev.Stage == StageScanning:
			scanned++
		case ev.Stage == StageExtracting && ev.FilesTotal == 4:
			unpacked++
		}
	}
	assert.Equal(t, 4, scanned)
	assert.Equal(t, 4, unpacked)
}

func TestUnpackTree_Cancelled(t *testing.T) {
	t.Parallel()

	root := t.TempDir()
	writePackage(t, filepath.Join(root, "pig.mad"), pigFiles)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := NewUnpacker().UnpackTree(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
	assert.NoDirExists(t, filepath.Join(root, "pig"))
}
