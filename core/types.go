package mad

import (
	"github.com/meigma/mad/core/internal/batch"
	"github.com/meigma/mad/core/internal/cursor"
	"github.com/meigma/mad/core/internal/madtype"
	"github.com/meigma/mad/core/internal/record"
)

// Re-export types from internal packages for the public API.
type (
	// Entry describes one file stored in a package.
	Entry = madtype.Entry

	// Status is the per-entry outcome of an extraction.
	Status = madtype.Status

	// Layout describes the shape of one index record.
	Layout = record.Layout

	// Source provides random access to package bytes together with their size.
	Source = cursor.Source

	// ProgressEvent represents a progress update during operations.
	ProgressEvent = madtype.ProgressEvent

	// ProgressStage identifies the current phase of an operation.
	ProgressStage = madtype.ProgressStage

	// ProgressFunc receives progress updates during operations.
	ProgressFunc = madtype.ProgressFunc

	// Sink receives entry content during extraction.
	Sink = batch.Sink

	// Committer is a writer that can be committed or discarded.
	Committer = batch.Committer

	// FileSink writes entries into a destination directory.
	FileSink = batch.FileSink

	// FileSinkOption configures a FileSink.
	FileSinkOption = batch.FileSinkOption

	// ExtractReport collects per-entry extraction results in on-disk order.
	ExtractReport = batch.Report

	// ExtractResult is the outcome of extracting one entry.
	ExtractResult = batch.Result

	// ExtractStats summarizes an extraction run.
	ExtractStats = batch.ProcessStats
)

// Record layouts seen in the wild. Both use 24-byte records.
var (
	// LayoutStandard stores a 16-byte name.
	LayoutStandard = record.Standard

	// LayoutReserved stores a 12-byte name followed by a 4-byte zero field.
	LayoutReserved = record.Reserved
)

// Re-export extraction status constants.
const (
	StatusExtracted     = madtype.StatusExtracted
	StatusAlreadyExists = madtype.StatusAlreadyExists
	StatusFailed        = madtype.StatusFailed
)

// Re-export progress stage constants.
const (
	StageScanning   = madtype.StageScanning
	StageLoading    = madtype.StageLoading
	StageExtracting = madtype.StageExtracting
	StageBuilding   = madtype.StageBuilding
)

// NewFileSink creates a FileSink that writes to destDir.
var NewFileSink = batch.NewFileSink

// FileSink options.
var (
	WithOverwrite    = batch.WithOverwrite
	WithDirectWrites = batch.WithDirectWrites
	WithFileMode     = batch.WithFileMode
)
