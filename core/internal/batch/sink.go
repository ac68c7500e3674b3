package batch

import (
	"io"

	"github.com/meigma/mad/core/internal/madtype"
)

// Entry is an alias for madtype.Entry.
type Entry = madtype.Entry

// Sink receives entry content during extraction.
//
// Implementations decide where content is written (a directory, memory, a
// network upload) and report which entries are already present.
type Sink interface {
	// Exists reports whether the destination already holds this entry.
	// Existing entries are skipped and reported as already present.
	Exists(entry *Entry) bool

	// Writer returns a writer for the entry's content.
	// The returned Committer must have Commit() called after the full
	// payload has been written, or Discard() called on any error.
	// An error wrapping madtype.ErrAlreadyExists, from Writer or Commit,
	// means the entry appeared after Exists was checked; it is reported as
	// already present rather than failed.
	Writer(entry *Entry) (Committer, error)
}

// Committer is a writer that can be committed or discarded.
//
// Implementations should stage writes until Commit is called so a short
// copy never leaves a truncated file at the destination.
type Committer interface {
	io.Writer

	// Commit finalizes the write, making content available.
	Commit() error

	// Discard aborts the write and cleans up any temporary resources.
	Discard() error
}
