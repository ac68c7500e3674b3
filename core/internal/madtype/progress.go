package madtype

// ProgressEvent represents a progress update during scan, unpack, or build operations.
type ProgressEvent struct {
	// Stage identifies the current phase of the operation.
	Stage ProgressStage

	// Path is the archive or entry currently being processed, if applicable.
	Path string

	// BytesDone is the number of bytes completed in the current operation.
	BytesDone uint64

	// BytesTotal is the total bytes for the current operation.
	// Zero indicates the total is unknown.
	BytesTotal uint64

	// FilesDone is the number of entries or archives completed.
	FilesDone int

	// FilesTotal is the total number of entries or archives.
	// Zero indicates the total is unknown (e.g., during scanning).
	FilesTotal int
}

// ProgressStage identifies the current phase of an operation.
type ProgressStage uint8

// Progress stages for scan, unpack, and build operations.
const (
	// StageScanning indicates the operation is walking a directory tree for packages.
	StageScanning ProgressStage = iota

	// StageLoading indicates a package index is being inferred.
	StageLoading

	// StageExtracting indicates entries are being copied out of a package.
	StageExtracting

	// StageBuilding indicates a package is being serialized.
	StageBuilding
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageScanning:
		return "scanning"
	case StageLoading:
		return "loading"
	case StageExtracting:
		return "extracting"
	case StageBuilding:
		return "building"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during operations.
// Implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)
