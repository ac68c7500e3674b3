package mad

import madcore "github.com/meigma/mad/core"

// Re-export progress types from core package.
type (
	// ProgressEvent represents a progress update during scan or unpack operations.
	ProgressEvent = madcore.ProgressEvent

	// ProgressStage identifies the current phase of an operation.
	ProgressStage = madcore.ProgressStage

	// ProgressFunc receives progress updates during operations.
	// Implementations must be safe for concurrent calls.
	ProgressFunc = madcore.ProgressFunc
)

// Re-export progress stage constants.
const (
	// StageScanning indicates the operation is walking a directory tree.
	StageScanning = madcore.StageScanning

	// StageLoading indicates a package index is being inferred.
	StageLoading = madcore.StageLoading

	// StageExtracting indicates entries are being copied out of a package.
	StageExtracting = madcore.StageExtracting

	// StageBuilding indicates a package is being written.
	StageBuilding = madcore.StageBuilding
)
