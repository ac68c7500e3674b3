package mad

import madcore "github.com/meigma/mad/core"

// Errors re-exported from core.
var (
	// ErrOpenFailed is returned when a package cannot be opened.
	ErrOpenFailed = madcore.ErrOpenFailed

	// ErrUnexpectedEOF is returned when a read runs past the end of a package.
	ErrUnexpectedEOF = madcore.ErrUnexpectedEOF

	// ErrCorruptIndex is returned when a package index holds invalid records.
	ErrCorruptIndex = madcore.ErrCorruptIndex

	// ErrInvalidEntryBounds is returned when an entry lies outside its package.
	ErrInvalidEntryBounds = madcore.ErrInvalidEntryBounds

	// ErrExtractionFailed is returned when an entry could not be copied out.
	ErrExtractionFailed = madcore.ErrExtractionFailed

	// ErrInvalidManifest is returned when an order manifest cannot be parsed.
	ErrInvalidManifest = madcore.ErrInvalidManifest

	// ErrDigestMismatch is returned when content does not match its manifest digest.
	ErrDigestMismatch = madcore.ErrDigestMismatch
)
