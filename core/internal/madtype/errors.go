package madtype

import "errors"

// Sentinel errors for package operations.
var (
	// ErrOpenFailed is returned when an archive or destination cannot be opened.
	ErrOpenFailed = errors.New("mad: open failed")

	// ErrUnexpectedEOF is returned when fewer bytes are available than requested.
	ErrUnexpectedEOF = errors.New("mad: unexpected end of file")

	// ErrSeekFailed is returned when a seek targets an offset outside the source.
	ErrSeekFailed = errors.New("mad: seek failed")

	// ErrCorruptIndex is returned when an index record contains invalid bytes.
	ErrCorruptIndex = errors.New("mad: corrupt index record")

	// ErrInvalidEntryBounds is returned when an entry's data lies outside the archive.
	ErrInvalidEntryBounds = errors.New("mad: entry outside archive bounds")

	// ErrNameTooLong is returned when a name does not fit the record's name field.
	ErrNameTooLong = errors.New("mad: entry name too long")

	// ErrInvalidName is returned when a name is empty or contains non-printable bytes.
	ErrInvalidName = errors.New("mad: invalid entry name")

	// ErrAlreadyExists reports that an entry was already present at the destination.
	ErrAlreadyExists = errors.New("mad: entry already exists")

	// ErrExtractionFailed is returned when an entry's bytes could not be copied out.
	ErrExtractionFailed = errors.New("mad: extraction failed")

	// ErrSizeOverflow is returned when sizes or offsets exceed the format's limits.
	ErrSizeOverflow = errors.New("mad: size overflow")

	// ErrInvalidManifest is returned when an order manifest cannot be parsed.
	ErrInvalidManifest = errors.New("mad: invalid manifest")

	// ErrDigestMismatch is returned when content does not match its recorded digest.
	ErrDigestMismatch = errors.New("mad: digest mismatch")

	// ErrClosed is returned when reading from an archive after Close.
	ErrClosed = errors.New("mad: archive closed")
)
