package madtype

// Entry describes one file stored in a package.
type Entry struct {
	// Name is the entry's file name with NUL padding removed (e.g., "pig.hir").
	Name string

	// Index is the entry's position in the on-disk index table.
	Index int

	// Offset is the byte offset from the start of the package where the data begins.
	Offset uint32

	// Length is the size of the entry's data in bytes.
	Length uint32
}

// End returns the offset one past the entry's last byte.
// The result cannot overflow because it is computed in 64 bits.
func (e Entry) End() uint64 {
	return uint64(e.Offset) + uint64(e.Length)
}

// Status is the per-entry outcome of an extraction.
type Status uint8

const (
	// StatusExtracted means the entry was written to the destination.
	StatusExtracted Status = iota

	// StatusAlreadyExists means the destination already held the entry and it was skipped.
	StatusAlreadyExists

	// StatusFailed means the entry could not be copied.
	StatusFailed
)

// String returns the human-readable name of the status.
func (s Status) String() string {
	switch s {
	case StatusExtracted:
		return "extracted"
	case StatusAlreadyExists:
		return "already exists"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}
