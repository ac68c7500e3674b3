package batch

// ProcessStats contains statistics from an extraction run.
type ProcessStats struct {
	// Extracted is the number of entries written to the sink.
	Extracted int

	// Skipped is the number of entries already present at the destination.
	Skipped int

	// Failed is the number of entries whose copy failed.
	Failed int

	// TotalBytes is the sum of Length for all extracted entries.
	TotalBytes uint64
}

// add accumulates one entry result into the stats.
func (s *ProcessStats) add(r Result) {
	switch r.Status {
	case StatusExtracted:
		s.Extracted++
		s.TotalBytes += uint64(r.Entry.Length)
	case StatusAlreadyExists:
		s.Skipped++
	case StatusFailed:
		s.Failed++
	}
}
