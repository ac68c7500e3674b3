package mad

import "github.com/meigma/mad/core/internal/madtype"

// Sentinel errors re-exported from internal/madtype.
var (
	// ErrOpenFailed is returned when a package cannot be opened.
	ErrOpenFailed = madtype.ErrOpenFailed

	// ErrUnexpectedEOF is returned when a read runs past the end of the package.
	ErrUnexpectedEOF = madtype.ErrUnexpectedEOF

	// ErrSeekFailed is returned when a seek targets an offset outside the package.
	ErrSeekFailed = madtype.ErrSeekFailed

	// ErrCorruptIndex is returned when an index record holds non-printable
	// name bytes or a non-zero reserved field.
	ErrCorruptIndex = madtype.ErrCorruptIndex

	// ErrInvalidEntryBounds is returned when an entry's data lies outside the package.
	ErrInvalidEntryBounds = madtype.ErrInvalidEntryBounds

	// ErrNameTooLong is returned when a name does not fit the layout's name field.
	ErrNameTooLong = madtype.ErrNameTooLong

	// ErrInvalidName is returned when a name is empty or not printable ASCII.
	ErrInvalidName = madtype.ErrInvalidName

	// ErrAlreadyExists reports that an entry was already present at the destination.
	ErrAlreadyExists = madtype.ErrAlreadyExists

	// ErrExtractionFailed is returned when an entry could not be copied out.
	ErrExtractionFailed = madtype.ErrExtractionFailed

	// ErrSizeOverflow is returned when a package would not be addressable
	// with 32-bit offsets.
	ErrSizeOverflow = madtype.ErrSizeOverflow

	// ErrInvalidManifest is returned when an order manifest cannot be parsed.
	ErrInvalidManifest = madtype.ErrInvalidManifest

	// ErrDigestMismatch is returned when content does not match its manifest digest.
	ErrDigestMismatch = madtype.ErrDigestMismatch

	// ErrClosed is returned when using an archive after Close.
	ErrClosed = madtype.ErrClosed
)
