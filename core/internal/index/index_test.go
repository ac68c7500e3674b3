package index

import (
	"bytes"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/mad/core/internal/cursor"
	"github.com/meigma/mad/core/internal/madtype"
	"github.com/meigma/mad/core/internal/record"
	"github.com/meigma/mad/core/testutil"
)

func load(t *testing.T, data []byte, opts Options) ([]record.Record, error) {
	t.Helper()
	return Load(cursor.New(testutil.NewMockSource(data)), opts)
}

// withSize pads data with filler up to size bytes.
func withSize(data []byte, size int, filler byte) []byte {
	out := make([]byte, size)
	copy(out, data)
	for i := len(data); i < size; i++ {
		out[i] = filler
	}
	return out
}

func TestLoad_WellFormed(t *testing.T) {
	t.Parallel()

	data := testutil.StandardArchive(
		testutil.File{Name: "a.bmp", Data: []byte("aaaa")},
		testutil.File{Name: "b.bmp", Data: []byte("bb")},
		testutil.File{Name: "c.wav", Data: []byte("c")},
	)
	recs, err := load(t, data, Options{})
	require.NoError(t, err)
	require.Len(t, recs, 3)

	assert.Equal(t, "a.bmp", recs[0].TrimmedName())
	assert.Equal(t, uint32(72), recs[0].Offset)
	assert.Equal(t, uint32(4), recs[0].Length)
	assert.Equal(t, "b.bmp", recs[1].TrimmedName())
	assert.Equal(t, uint32(76), recs[1].Offset)
	assert.Equal(t, "c.wav", recs[2].TrimmedName())
	assert.Equal(t, uint32(78), recs[2].Offset)
}

func TestLoad_UnsortedOffsets(t *testing.T) {
	t.Parallel()

	// Offsets 600, 200, 400: data_begin must end at min(600, 200, 400) no
	// matter which record carries it.
	recs := []testutil.RawRecord{
		{Name: "first", Offset: 600, Length: 10},
		{Name: "second", Offset: 200, Length: 10},
		{Name: "third", Offset: 400, Length: 10},
	}

	tests := []struct {
		name     string
		nameSize int
		want     int
	}{
		// 3 records of 64 bytes fit under 200; a 4th (256) would not.
		{name: "record size 64", nameSize: 56, want: 3},
		// After the second record data_begin is 200; a 3rd record (240) would cross it.
		{name: "record size 80", nameSize: 72, want: 2},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			data := withSize(testutil.RawIndex(tc.nameSize, 0, recs...), 1000, 0xee)
			layout := record.Layout{NameSize: tc.nameSize}

			got, err := load(t, data, Options{Layout: layout})
			require.NoError(t, err)
			require.Len(t, got, tc.want)
			for i := range got {
				assert.Equal(t, recs[i].Name, got[i].TrimmedName())
				assert.Equal(t, recs[i].Offset, got[i].Offset)
			}
		})
	}
}

func TestLoad_StandardUnsortedOffsets(t *testing.T) {
	t.Parallel()

	// With 24-byte records the bytes between the table and offset 200 are
	// themselves read as records until data_begin is reached.
	recs := []testutil.RawRecord{
		{Name: "first", Offset: 600, Length: 10},
		{Name: "second", Offset: 200, Length: 10},
		{Name: "third", Offset: 400, Length: 10},
		{Name: "fourth", Offset: 96, Length: 104},
	}
	data := withSize(testutil.RawIndex(16, 0, recs...), 1000, 0xee)

	got, err := load(t, data, Options{})
	require.NoError(t, err)
	require.Len(t, got, 4)
	assert.Equal(t, "fourth", got[3].TrimmedName())
}

func TestLoad_Boundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		offset uint32
		length uint32
		err    error
	}{
		{name: "ends at file size", offset: 24, length: 8},
		{name: "empty payload before end", offset: 31, length: 0},
		{name: "offset equals file size", offset: 32, length: 0, err: madtype.ErrInvalidEntryBounds},
		{name: "offset past file size", offset: 40, length: 0, err: madtype.ErrInvalidEntryBounds},
		{name: "end past file size", offset: 24, length: 9, err: madtype.ErrInvalidEntryBounds},
		{name: "u32 overflow", offset: 24, length: 0xffffffff, err: madtype.ErrInvalidEntryBounds},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			rec := testutil.RawRecord{Name: "x", Offset: tc.offset, Length: tc.length}
			data := withSize(testutil.RawIndex(16, 0, rec), 32, 'p')

			got, err := load(t, data, Options{})
			if tc.err != nil {
				require.ErrorIs(t, err, tc.err)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			require.Len(t, got, 1)
		})
	}
}

func TestLoad_CorruptName(t *testing.T) {
	t.Parallel()

	data := testutil.StandardArchive(
		testutil.File{Name: "a.bmp", Data: []byte("aaaa")},
		testutil.File{Name: "b.bmp", Data: []byte("bb")},
	)
	data[24+3] = 0x07

	got, err := load(t, data, Options{})
	require.ErrorIs(t, err, madtype.ErrCorruptIndex)
	assert.Nil(t, got)
}

func TestLoad_EmptyAndTiny(t *testing.T) {
	t.Parallel()

	got, err := load(t, nil, Options{})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = load(t, []byte("short"), Options{})
	require.NoError(t, err)
	assert.Empty(t, got)

	got, err = load(t, make([]byte, 23), Options{})
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestLoad_AllZero(t *testing.T) {
	t.Parallel()

	// The first record names nothing at offset 0, which pins data_begin to 0.
	got, err := load(t, make([]byte, 100), Options{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Empty(t, got[0].TrimmedName())
	assert.Equal(t, uint32(0), got[0].Offset)
	assert.Equal(t, uint32(0), got[0].Length)
}

func TestLoad_Truncated(t *testing.T) {
	t.Parallel()

	// The source claims 200 bytes but holds only part of the first record.
	src := testutil.NewLyingSource(make([]byte, 10), 200)
	got, err := Load(cursor.New(src), Options{})
	require.ErrorIs(t, err, madtype.ErrUnexpectedEOF)
	assert.Nil(t, got)
}

func TestLoad_Overlapping(t *testing.T) {
	t.Parallel()

	recs := []testutil.RawRecord{
		{Name: "a", Offset: 48, Length: 4},
		{Name: "same", Offset: 48, Length: 4},
	}
	data := withSize(testutil.RawIndex(16, 0, recs...), 52, 'z')

	got, err := load(t, data, Options{})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, got[0].Offset, got[1].Offset)
}

func TestLoad_Reserved(t *testing.T) {
	t.Parallel()

	good := testutil.RawIndex(12, 4,
		testutil.RawRecord{Name: "t1.mtd", Offset: 48, Length: 2},
		testutil.RawRecord{Name: "t2.mtd", Offset: 50, Length: 2},
	)
	good = append(good, "xxyy"...)

	got, err := load(t, good, Options{Layout: record.Reserved})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "t2.mtd", got[1].TrimmedName())

	// The same bytes read under the standard layout give the same table.
	std, err := load(t, good, Options{})
	require.NoError(t, err)
	require.Len(t, std, 2)
	assert.Equal(t, "t2.mtd", std[1].TrimmedName())

	bad := testutil.RawIndex(12, 4,
		testutil.RawRecord{Name: "t1.mtd", Reserved: 0x41, Offset: 24, Length: 2},
	)
	bad = append(bad, "xx"...)

	_, err = load(t, bad, Options{Layout: record.Reserved})
	require.ErrorIs(t, err, madtype.ErrCorruptIndex)

	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	got, err = load(t, bad, Options{Layout: record.Reserved, LenientReserved: true, Logger: logger})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Contains(t, logs.String(), "unexpected reserved value")
}

func TestLoad_InvalidLayout(t *testing.T) {
	t.Parallel()

	_, err := load(t, make([]byte, 48), Options{Layout: record.Layout{NameSize: 8, ReservedSize: 3}})
	require.Error(t, err)
}

func TestCount_MatchesRead(t *testing.T) {
	t.Parallel()

	data := testutil.StandardArchive(
		testutil.File{Name: "one", Data: []byte("1")},
		testutil.File{Name: "two", Data: []byte("22")},
	)
	c := cursor.New(testutil.NewMockSource(data))

	n, err := Count(c, Options{})
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	recs, err := Read(c, record.Standard, n)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, int64(48), c.Offset())

	// Names are copies, not views into a reused buffer.
	assert.Equal(t, "one", recs[0].TrimmedName())
	assert.Equal(t, "two", recs[1].TrimmedName())
}

func TestRead_PastEnd(t *testing.T) {
	t.Parallel()

	data := testutil.StandardArchive(testutil.File{Name: "one", Data: []byte("1")})
	c := cursor.New(testutil.NewMockSource(data))

	_, err := Read(c, record.Standard, 2)
	require.ErrorIs(t, err, madtype.ErrUnexpectedEOF)
	assert.Contains(t, err.Error(), "index record 1")
}
