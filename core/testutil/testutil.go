// Package testutil provides fixtures for package archive tests.
package testutil

import (
	"encoding/binary"
	"errors"
	"io"
)

// StandardNameSize and RecordSize describe the common 24-byte index record.
const (
	StandardNameSize = 16
	RecordSize       = 24
)

// MockSource is an in-memory source for tests.
type MockSource struct {
	data []byte
}

// NewMockSource creates a MockSource over data.
func NewMockSource(data []byte) *MockSource {
	return &MockSource{data: data}
}

// ReadAt implements io.ReaderAt.
func (m *MockSource) ReadAt(p []byte, off int64) (int, error) {
	if off >= int64(len(m.data)) {
		return 0, io.EOF
	}
	n := copy(p, m.data[off:])
	if n < len(p) {
		return n, io.EOF
	}
	return n, nil
}

// Size returns the data length.
func (m *MockSource) Size() int64 {
	return int64(len(m.data))
}

// Bytes returns the underlying data.
func (m *MockSource) Bytes() []byte {
	return m.data
}

// LyingSource reports a size larger than the bytes it can serve, simulating
// a file truncated between stat and read.
type LyingSource struct {
	MockSource
	size int64
}

// NewLyingSource creates a source over data that claims to be size bytes long.
func NewLyingSource(data []byte, size int64) *LyingSource {
	return &LyingSource{MockSource: MockSource{data: data}, size: size}
}

// Size returns the claimed size.
func (l *LyingSource) Size() int64 {
	return l.size
}

// RawRecord is an index record written verbatim, without validation.
type RawRecord struct {
	Name     string
	Reserved uint32
	Offset   uint32
	Length   uint32
}

// RawIndex encodes records with the given name width. A reservedSize of 4
// writes the Reserved field after the name; 0 omits it.
// Names longer than nameSize are truncated.
func RawIndex(nameSize, reservedSize int, recs ...RawRecord) []byte {
	size := nameSize + reservedSize + 8
	out := make([]byte, size*len(recs))
	for i, r := range recs {
		buf := out[i*size : (i+1)*size]
		copy(buf[:nameSize], r.Name)
		pos := nameSize
		if reservedSize == 4 {
			binary.LittleEndian.PutUint32(buf[pos:], r.Reserved)
			pos += 4
		}
		binary.LittleEndian.PutUint32(buf[pos:], r.Offset)
		binary.LittleEndian.PutUint32(buf[pos+4:], r.Length)
	}
	return out
}

// File is a named payload for StandardArchive.
type File struct {
	Name string
	Data []byte
}

// StandardArchive lays out files the way a well-formed package is written:
// a table of 24-byte records with 16-byte names followed by the payloads in
// the same order.
func StandardArchive(files ...File) []byte {
	recs := make([]RawRecord, len(files))
	offset := uint32(len(files) * RecordSize) //nolint:gosec // fixtures are small
	for i, f := range files {
		recs[i] = RawRecord{Name: f.Name, Offset: offset, Length: uint32(len(f.Data))} //nolint:gosec // fixtures are small
		offset += uint32(len(f.Data))                                                 //nolint:gosec // fixtures are small
	}
	out := RawIndex(StandardNameSize, 0, recs...)
	for _, f := range files {
		out = append(out, f.Data...)
	}
	return out
}

// ErrWriteFailed is returned by FailingWriter once its budget is used up.
var ErrWriteFailed = errors.New("testutil: write failed")

// FailingWriter accepts Budget bytes and then fails every write.
type FailingWriter struct {
	Budget  int
	Written []byte
}

// Write implements io.Writer.
func (w *FailingWriter) Write(p []byte) (int, error) {
	room := w.Budget - len(w.Written)
	if room <= 0 {
		return 0, ErrWriteFailed
	}
	if len(p) > room {
		w.Written = append(w.Written, p[:room]...)
		return room, ErrWriteFailed
	}
	w.Written = append(w.Written, p...)
	return len(p), nil
}
