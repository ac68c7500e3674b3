package mad

import (
	"context"
	"fmt"
	"io/fs"

	"github.com/meigma/mad/core/internal/batch"
)

func (a *Archive) processor() *batch.Processor {
	return batch.NewProcessor(a.cur,
		batch.WithProcessorLogger(a.logger),
		batch.WithProcessorProgress(a.progress),
		batch.WithSourceName(a.path))
}

// Extract copies the i-th entry to sink.
//
// If the sink already holds the entry, Extract returns StatusAlreadyExists
// and a nil error. A failed copy returns StatusFailed and an error wrapping
// ErrExtractionFailed.
func (a *Archive) Extract(i int, sink Sink) (Status, error) {
	if i < 0 || i >= len(a.entries) {
		return StatusFailed, fmt.Errorf("%w: entry %d of %d: %w", ErrExtractionFailed, i, len(a.entries), fs.ErrNotExist)
	}
	e := a.entries[i]
	return a.processor().Extract(&e, sink)
}

// ExtractAll copies every entry to sink in on-disk order.
//
// Per-entry failures are recorded in the report and never stop the run; use
// ExtractReport.Err to collect them. ExtractAll returns early only when ctx
// is cancelled, together with the results gathered so far.
func (a *Archive) ExtractAll(ctx context.Context, sink Sink) (*ExtractReport, error) {
	entries := make([]*batch.Entry, len(a.entries))
	for i := range a.entries {
		entries[i] = &a.entries[i]
	}
	report, err := a.processor().Process(ctx, entries, sink)
	if err != nil {
		return report, err
	}
	a.log().Info("package extracted",
		"path", a.path,
		"extracted", report.Stats.Extracted,
		"skipped", report.Stats.Skipped,
		"failed", report.Stats.Failed)
	return report, nil
}

// ExtractDir extracts every entry into dir, creating it if needed.
// Files already present in dir are skipped unless WithOverwrite is given.
func (a *Archive) ExtractDir(ctx context.Context, dir string, opts ...FileSinkOption) (*ExtractReport, error) {
	return a.ExtractAll(ctx, batch.NewFileSink(dir, opts...))
}
