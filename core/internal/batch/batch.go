// Package batch copies package entries out to a Sink.
package batch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/meigma/mad/core/internal/cursor"
	"github.com/meigma/mad/core/internal/madtype"
)

// Status aliases and constants re-exported from madtype.
type Status = madtype.Status

const (
	StatusExtracted     = madtype.StatusExtracted
	StatusAlreadyExists = madtype.StatusAlreadyExists
	StatusFailed        = madtype.StatusFailed
)

// Result is the outcome of extracting one entry.
type Result struct {
	Entry  Entry
	Status Status
	// Err is set when Status is StatusFailed and wraps madtype.ErrExtractionFailed.
	Err error
}

// Report collects per-entry results in the order entries were processed.
type Report struct {
	Results []Result
	Stats   ProcessStats
}

// Err joins the errors of every failed entry, or returns nil.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
	}
	return errors.Join(errs...)
}

// Processor extracts entries by seeking a cursor to each payload.
//
// A Processor shares its cursor with the archive that created it and must
// not be used concurrently with other reads on that cursor.
type Processor struct {
	cur      *cursor.Cursor
	logger   *slog.Logger
	progress madtype.ProgressFunc
	source   string
}

// log returns the logger, falling back to a discard logger if nil.
func (p *Processor) log() *slog.Logger {
	if p.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return p.logger
}

// ProcessorOption configures a Processor.
type ProcessorOption func(*Processor)

// WithProcessorLogger sets the logger for extraction.
// If not set, logging is disabled.
func WithProcessorLogger(logger *slog.Logger) ProcessorOption {
	return func(p *Processor) {
		p.logger = logger
	}
}

// WithProcessorProgress sets a callback receiving one event per entry.
func WithProcessorProgress(fn madtype.ProgressFunc) ProcessorOption {
	return func(p *Processor) {
		p.progress = fn
	}
}

// WithSourceName labels log lines and progress events with the package path.
func WithSourceName(name string) ProcessorOption {
	return func(p *Processor) {
		p.source = name
	}
}

// NewProcessor creates a processor reading payloads through c.
func NewProcessor(c *cursor.Cursor, opts ...ProcessorOption) *Processor {
	p := &Processor{cur: c}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Extract copies one entry to sink.
//
// If the sink already holds the entry, Extract returns StatusAlreadyExists
// and a nil error. A failed copy returns StatusFailed and an error wrapping
// madtype.ErrExtractionFailed; nothing is left at the destination.
func (p *Processor) Extract(entry *Entry, sink Sink) (Status, error) {
	if sink.Exists(entry) {
		p.log().Debug("entry already extracted", "entry", entry.Name)
		return StatusAlreadyExists, nil
	}

	w, err := sink.Writer(entry)
	if errors.Is(err, madtype.ErrAlreadyExists) {
		p.log().Debug("entry appeared at destination", "entry", entry.Name)
		return StatusAlreadyExists, nil
	}
	if err != nil {
		return StatusFailed, fmt.Errorf("%w: %s: %w", madtype.ErrExtractionFailed, entry.Name, err)
	}
	if err := p.copyEntry(entry, w); err != nil {
		_ = w.Discard() //nolint:errcheck // the copy error is what the caller needs
		return StatusFailed, fmt.Errorf("%w: %s: %w", madtype.ErrExtractionFailed, entry.Name, err)
	}
	err = w.Commit()
	switch {
	case errors.Is(err, madtype.ErrAlreadyExists):
		p.log().Debug("entry appeared at destination", "entry", entry.Name)
		return StatusAlreadyExists, nil
	case err != nil:
		return StatusFailed, fmt.Errorf("%w: %s: %w", madtype.ErrExtractionFailed, entry.Name, err)
	}
	return StatusExtracted, nil
}

// copyEntry seeks to the payload and copies exactly entry.Length bytes to w.
func (p *Processor) copyEntry(entry *Entry, w io.Writer) error {
	if err := p.cur.SeekTo(int64(entry.Offset)); err != nil {
		return err
	}
	want := int64(entry.Length)
	n, err := io.CopyN(w, p.cur, want)
	if n != want {
		if err == nil || errors.Is(err, io.EOF) {
			err = madtype.ErrUnexpectedEOF
		}
		return fmt.Errorf("copied %d of %d bytes: %w", n, want, err)
	}
	return err
}

// Process extracts entries in the given order.
//
// A failed entry is recorded in the report and does not stop the remaining
// entries. Process only returns early when ctx is cancelled, which is checked
// between entries; the partial report is returned alongside ctx.Err().
func (p *Processor) Process(ctx context.Context, entries []*Entry, sink Sink) (*Report, error) {
	report := &Report{Results: make([]Result, 0, len(entries))}
	for i, entry := range entries {
		if err := ctx.Err(); err != nil {
			return report, err
		}

		status, err := p.Extract(entry, sink)
		res := Result{Entry: *entry, Status: status, Err: err}
		report.Results = append(report.Results, res)
		report.Stats.add(res)

		switch status {
		case StatusExtracted:
			p.log().Debug("entry extracted", "source", p.source, "entry", entry.Name, "bytes", entry.Length)
		case StatusFailed:
			p.log().Warn("entry extraction failed", "source", p.source, "entry", entry.Name, "error", err)
		}
		p.reportProgress(entry, i+1, len(entries), report.Stats.TotalBytes)
	}

	p.log().Debug("extraction finished",
		"source", p.source,
		"extracted", report.Stats.Extracted,
		"skipped", report.Stats.Skipped,
		"failed", report.Stats.Failed)
	return report, nil
}

func (p *Processor) reportProgress(entry *Entry, done, total int, bytesDone uint64) {
	if p.progress == nil {
		return
	}
	p.progress(madtype.ProgressEvent{
		Stage:      madtype.StageExtracting,
		Path:       entry.Name,
		BytesDone:  bytesDone,
		FilesDone:  done,
		FilesTotal: total,
	})
}
