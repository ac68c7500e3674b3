package index

import (
	"fmt"
	"log/slog"

	"github.com/meigma/mad/core/internal/cursor"
	"github.com/meigma/mad/core/internal/madtype"
	"github.com/meigma/mad/core/internal/record"
)

// Options controls index inference.
type Options struct {
	// Layout is the record layout. The zero value means record.Standard.
	Layout record.Layout

	// LenientReserved logs non-zero reserved fields instead of rejecting them.
	LenientReserved bool

	// Logger receives debug output. Nil disables logging.
	Logger *slog.Logger
}

func (o *Options) layout() record.Layout {
	if o.Layout == (record.Layout{}) {
		return record.Standard
	}
	return o.Layout
}

func (o *Options) log() *slog.Logger {
	if o.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return o.Logger
}

// Load infers the number of index records in the source behind c and
// returns them in on-disk order.
//
// Load either returns every record of a self-consistent table or an error;
// it never returns a partial table. The cursor is left at the end of the
// table on success.
func Load(c *cursor.Cursor, opts Options) ([]record.Record, error) {
	layout := opts.layout()
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	n, err := Count(c, opts)
	if err != nil {
		return nil, err
	}
	return Read(c, layout, n)
}

// Count runs the inference pass and returns the number of valid records.
//
// The table can never extend into payload data, so reading stops once the
// next record would end past the lowest payload offset seen so far.
func Count(c *cursor.Cursor, opts Options) (int, error) {
	layout := opts.layout()
	if err := layout.Validate(); err != nil {
		return 0, err
	}
	logger := opts.log()

	c.Rewind()
	fileSize := uint64(c.Size()) //nolint:gosec // Size is never negative
	recordSize := uint64(layout.Size())
	dataBegin := fileSize
	buf := make([]byte, layout.Size())

	var n uint64
	for (n+1)*recordSize <= dataBegin {
		if err := c.ReadFull(buf); err != nil {
			return 0, fmt.Errorf("index record %d: %w", n, err)
		}
		rec, err := record.Decode(layout, buf)
		if err != nil {
			return 0, fmt.Errorf("index record %d: %w", n, err)
		}
		if err := check(rec, n, fileSize, opts.LenientReserved, logger); err != nil {
			return 0, err
		}
		if uint64(rec.Offset) < dataBegin {
			dataBegin = uint64(rec.Offset)
		}
		n++
	}

	logger.Debug("index inferred",
		"records", n,
		"record_size", recordSize,
		"data_begin", dataBegin,
		"file_size", fileSize)
	return int(n), nil //nolint:gosec // n*recordSize <= fileSize bounds n
}

// Read rewinds c and decodes exactly n records.
// Names in the returned records are copies and do not alias cursor buffers.
func Read(c *cursor.Cursor, layout record.Layout, n int) ([]record.Record, error) {
	c.Rewind()
	records := make([]record.Record, 0, n)
	for i := range n {
		buf, err := c.Next(layout.Size())
		if err != nil {
			return nil, fmt.Errorf("index record %d: %w", i, err)
		}
		rec, err := record.Decode(layout, buf)
		if err != nil {
			return nil, fmt.Errorf("index record %d: %w", i, err)
		}
		records = append(records, rec)
	}
	return records, nil
}

// check validates a single candidate record against the file size.
func check(rec record.Record, n, fileSize uint64, lenientReserved bool, logger *slog.Logger) error {
	if !record.ValidName(rec.Name) {
		return fmt.Errorf("%w: record %d name %q has non-printable bytes", madtype.ErrCorruptIndex, n, rec.Name)
	}
	if rec.Reserved != 0 {
		if !lenientReserved {
			return fmt.Errorf("%w: record %d reserved field is 0x%08x", madtype.ErrCorruptIndex, n, rec.Reserved)
		}
		logger.Warn("unexpected reserved value in index record",
			"record", n,
			"name", rec.TrimmedName(),
			"reserved", rec.Reserved)
	}
	if uint64(rec.Offset) >= fileSize || rec.End() > fileSize {
		return fmt.Errorf("%w: record %d (%q) spans [%d, %d) in a %d-byte file",
			madtype.ErrInvalidEntryBounds, n, rec.TrimmedName(), rec.Offset, rec.End(), fileSize)
	}
	return nil
}
