package mad

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/mad/core/testutil"
)

func TestExtractDir(t *testing.T) {
	t.Parallel()

	a := loadSample(t)
	dir := filepath.Join(t.TempDir(), "sample")

	report, err := a.ExtractDir(context.Background(), dir)
	require.NoError(t, err)
	require.NoError(t, report.Err())
	assert.Equal(t, ExtractStats{Extracted: 4, TotalBytes: 17}, report.Stats)

	for _, f := range sampleFiles {
		got, err := os.ReadFile(filepath.Join(dir, f.Name))
		require.NoError(t, err, f.Name)
		assert.Equal(t, len(f.Data), len(got), f.Name)
		assert.Equal(t, string(f.Data), string(got), f.Name)
	}
}

func TestExtractDir_Idempotent(t *testing.T) {
	t.Parallel()

	a := loadSample(t)
	dir := t.TempDir()

	_, err := a.ExtractDir(context.Background(), dir)
	require.NoError(t, err)
	before, err := os.ReadFile(filepath.Join(dir, "pig.hir"))
	require.NoError(t, err)

	report, err := a.ExtractDir(context.Background(), dir)
	require.NoError(t, err)
	require.Len(t, report.Results, len(sampleFiles))
	for _, res := range report.Results {
		assert.Equal(t, StatusAlreadyExists, res.Status, res.Entry.Name)
		assert.NoError(t, res.Err)
	}
	assert.Equal(t, len(sampleFiles), report.Stats.Skipped)

	after, err := os.ReadFile(filepath.Join(dir, "pig.hir"))
	require.NoError(t, err)
	assert.Equal(t, before, after)
}

func TestExtractDir_Overwrite(t *testing.T) {
	t.Parallel()

	a := loadSample(t)
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "cow.bmp"), []byte("stale"), 0o600))

	report, err := a.ExtractDir(context.Background(), dir, WithOverwrite(true))
	require.NoError(t, err)
	assert.Equal(t, 4, report.Stats.Extracted)

	got, err := os.ReadFile(filepath.Join(dir, "cow.bmp"))
	require.NoError(t, err)
	assert.Equal(t, []byte("moo"), got)
}

func TestExtractAll_FailureDoesNotAbort(t *testing.T) {
	t.Parallel()

	data := testutil.StandardArchive(
		testutil.File{Name: "ok1", Data: []byte("one")},
		testutil.File{Name: "../escape", Data: []byte("bad")},
		testutil.File{Name: "ok2", Data: []byte("two")},
	)
	a, err := Load(testutil.NewMockSource(data))
	require.NoError(t, err)

	dir := t.TempDir()
	report, err := a.ExtractDir(context.Background(), dir)
	require.NoError(t, err)

	require.Len(t, report.Results, 3)
	assert.Equal(t, StatusExtracted, report.Results[0].Status)
	assert.Equal(t, StatusFailed, report.Results[1].Status)
	assert.ErrorIs(t, report.Results[1].Err, ErrExtractionFailed)
	assert.Equal(t, StatusExtracted, report.Results[2].Status)
	assert.ErrorIs(t, report.Err(), ErrExtractionFailed)

	_, err = os.Stat(filepath.Join(dir, "..", "escape"))
	assert.Error(t, err)
}

func TestExtractAll_Cancelled(t *testing.T) {
	t.Parallel()

	a := loadSample(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	report, err := a.ExtractDir(ctx, t.TempDir())
	require.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, report.Results)
}

func TestExtract_Single(t *testing.T) {
	t.Parallel()

	a := loadSample(t)
	dir := t.TempDir()
	sink := NewFileSink(dir)

	status, err := a.Extract(3, sink)
	require.NoError(t, err)
	assert.Equal(t, StatusExtracted, status)

	status, err = a.Extract(3, sink)
	require.NoError(t, err)
	assert.Equal(t, StatusAlreadyExists, status)

	status, err = a.Extract(7, sink)
	require.ErrorIs(t, err, ErrExtractionFailed)
	assert.Equal(t, StatusFailed, status)

	got, err := os.ReadFile(filepath.Join(dir, "hen.wav"))
	require.NoError(t, err)
	assert.Equal(t, []byte("cluck"), got)
}

func TestExtract_Progress(t *testing.T) {
	t.Parallel()

	var events []ProgressEvent
	a := loadSample(t, WithProgress(func(ev ProgressEvent) { events = append(events, ev) }))
	_, err := a.ExtractDir(context.Background(), t.TempDir())
	require.NoError(t, err)

	// One loading event followed by one per entry.
	require.Len(t, events, 1+len(sampleFiles))
	last := events[len(events)-1]
	assert.Equal(t, StageExtracting, last.Stage)
	assert.Equal(t, len(sampleFiles), last.FilesDone)
	assert.Equal(t, uint64(17), last.BytesDone)
}
