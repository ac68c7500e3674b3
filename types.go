package mad

import madcore "github.com/meigma/mad/core"

// --- Re-exports from core ---

// Entry describes one file stored in a package.
type Entry = madcore.Entry

// Layout describes the shape of one index record.
type Layout = madcore.Layout

// Status is the per-entry outcome of an extraction.
type Status = madcore.Status

// ExtractResult is the outcome of extracting one entry.
type ExtractResult = madcore.ExtractResult

// ExtractStats summarizes an extraction run.
type ExtractStats = madcore.ExtractStats

// Manifest records the entry order of an unpacked package.
type Manifest = madcore.Manifest

// Record layouts.
var (
	LayoutStandard = madcore.LayoutStandard
	LayoutReserved = madcore.LayoutReserved
)

// Re-export extraction status constants.
const (
	StatusExtracted     = madcore.StatusExtracted
	StatusAlreadyExists = madcore.StatusAlreadyExists
	StatusFailed        = madcore.StatusFailed
)
