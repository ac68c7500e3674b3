package cursor

import (
	"errors"
	"fmt"
	"io"

	"github.com/meigma/mad/core/internal/madtype"
)

// Cursor reads a Source sequentially from a current offset.
//
// A Cursor is not safe for concurrent use; exactly one read or seek may be
// in flight at a time.
type Cursor struct {
	src    Source
	closer io.Closer
	name   string
	off    int64
	closed bool
}

// New returns a cursor over src positioned at offset 0.
// Closing the cursor does not close src.
func New(src Source) *Cursor {
	return &Cursor{src: src}
}

// Name returns the path the cursor was opened from, or "" for in-memory sources.
func (c *Cursor) Name() string {
	return c.name
}

// Size returns the total size of the source in bytes.
func (c *Cursor) Size() int64 {
	return c.src.Size()
}

// Offset returns the current read position.
func (c *Cursor) Offset() int64 {
	return c.off
}

// Remaining returns the number of bytes between the current offset and the end.
func (c *Cursor) Remaining() int64 {
	return c.src.Size() - c.off
}

// ReadFull fills p from the current offset and advances past it.
// It returns madtype.ErrUnexpectedEOF if fewer than len(p) bytes are available;
// the offset is left unchanged in that case.
func (c *Cursor) ReadFull(p []byte) error {
	if c.closed {
		return madtype.ErrClosed
	}
	if len(p) == 0 {
		return nil
	}
	n, err := c.src.ReadAt(p, c.off)
	if n == len(p) {
		// io.ReaderAt may report io.EOF alongside a full read at the end of the source.
		c.off += int64(n)
		return nil
	}
	if err == nil || errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: read %d of %d bytes at offset %d", madtype.ErrUnexpectedEOF, n, len(p), c.off)
	}
	return fmt.Errorf("%w: read at offset %d: %w", madtype.ErrUnexpectedEOF, c.off, err)
}

// Next reads exactly n bytes into a new slice.
func (c *Cursor) Next(n int) ([]byte, error) {
	if n < 0 {
		return nil, fmt.Errorf("%w: negative read length %d", madtype.ErrUnexpectedEOF, n)
	}
	if int64(n) > c.Remaining() {
		return nil, fmt.Errorf("%w: need %d bytes at offset %d, have %d", madtype.ErrUnexpectedEOF, n, c.off, c.Remaining())
	}
	buf := make([]byte, n)
	if err := c.ReadFull(buf); err != nil {
		return nil, err
	}
	return buf, nil
}

// Read implements io.Reader, returning io.EOF at the end of the source.
func (c *Cursor) Read(p []byte) (int, error) {
	if c.closed {
		return 0, madtype.ErrClosed
	}
	if c.off >= c.src.Size() {
		return 0, io.EOF
	}
	if rem := c.src.Size() - c.off; int64(len(p)) > rem {
		p = p[:rem]
	}
	n, err := c.src.ReadAt(p, c.off)
	c.off += int64(n)
	if n == len(p) && errors.Is(err, io.EOF) {
		err = nil
	}
	return n, err
}

// SeekTo moves the cursor to the absolute offset off.
// Offsets outside [0, Size()] fail with madtype.ErrSeekFailed.
func (c *Cursor) SeekTo(off int64) error {
	if c.closed {
		return madtype.ErrClosed
	}
	if off < 0 || off > c.src.Size() {
		return fmt.Errorf("%w: offset %d outside [0, %d]", madtype.ErrSeekFailed, off, c.src.Size())
	}
	c.off = off
	return nil
}

// Rewind resets the cursor to offset 0.
func (c *Cursor) Rewind() {
	c.off = 0
}

// Section returns a reader over n bytes starting at off, independent of the
// cursor's own offset.
func (c *Cursor) Section(off, n int64) *io.SectionReader {
	return io.NewSectionReader(c.src, off, n)
}

// Close releases the underlying handle when the cursor owns one.
// Close is idempotent.
func (c *Cursor) Close() error {
	if c.closed {
		return nil
	}
	c.closed = true
	if c.closer != nil {
		return c.closer.Close()
	}
	return nil
}
