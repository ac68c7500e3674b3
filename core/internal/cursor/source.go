package cursor

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/mmap"

	"github.com/meigma/mad/core/internal/madtype"
)

// Source provides random access to package bytes.
//
// Size must report the total number of readable bytes; it plays the role of
// a stat call and bounds every offset the index engine accepts.
type Source interface {
	io.ReaderAt
	Size() int64
}

// fileSource wraps *os.File to implement Source.
// os.File has ReadAt but not Size, so the size is captured at construction.
type fileSource struct {
	file *os.File
	size int64
}

func newFileSource(f *os.File) (*fileSource, error) {
	info, err := f.Stat()
	if err != nil {
		return nil, fmt.Errorf("stat %s: %w", f.Name(), err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%s: not a regular file", f.Name())
	}
	return &fileSource{file: f, size: info.Size()}, nil
}

func (s *fileSource) ReadAt(p []byte, off int64) (int, error) {
	return s.file.ReadAt(p, off)
}

func (s *fileSource) Size() int64 {
	return s.size
}

func (s *fileSource) Close() error {
	return s.file.Close()
}

// mappedSource exposes a read-only memory map as a Source.
type mappedSource struct {
	r *mmap.ReaderAt
}

func (s *mappedSource) ReadAt(p []byte, off int64) (int, error) {
	return s.r.ReadAt(p, off)
}

func (s *mappedSource) Size() int64 {
	return int64(s.r.Len())
}

func (s *mappedSource) Close() error {
	return s.r.Close()
}

// Open opens the file at path and returns a cursor positioned at offset 0.
func Open(path string) (*Cursor, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", madtype.ErrOpenFailed, err)
	}
	src, err := newFileSource(f)
	if err != nil {
		_ = f.Close()
		return nil, fmt.Errorf("%w: %w", madtype.ErrOpenFailed, err)
	}
	c := New(src)
	c.closer = src
	c.name = path
	return c, nil
}

// OpenMapped memory-maps the file at path read-only and returns a cursor over it.
//
// Mapping avoids a syscall per record during index inference, which matters
// when scanning directories holding many small packages.
func OpenMapped(path string) (*Cursor, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", madtype.ErrOpenFailed, err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("%w: %s: not a regular file", madtype.ErrOpenFailed, path)
	}
	r, err := mmap.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", madtype.ErrOpenFailed, err)
	}
	src := &mappedSource{r: r}
	c := New(src)
	c.closer = src
	c.name = path
	return c, nil
}
