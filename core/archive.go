package mad

import (
	"fmt"
	"io"
	"io/fs"
	"iter"
	"log/slog"

	"github.com/meigma/mad/core/internal/cursor"
	"github.com/meigma/mad/core/internal/index"
	"github.com/meigma/mad/core/internal/madtype"
	"github.com/meigma/mad/core/internal/record"
)

// Archive is a loaded package: its ordered entry table and the open source
// the payloads are read from.
//
// Entries keep their on-disk order and are never reordered. Payloads are
// read lazily and cached until Release. An Archive reads through a single
// cursor and is not safe for concurrent use.
type Archive struct {
	path    string
	layout  Layout
	entries []Entry
	byName  map[string]int
	cache   payloadCache
	cur     *cursor.Cursor

	// cacheLimit bounds the payload cache; zero keeps every payload.
	cacheLimit int

	lenientReserved bool
	mapped          bool
	logger          *slog.Logger
	progress        ProgressFunc
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// Open opens the package at path and infers its index.
//
// Open is all-or-nothing: on any error the file is closed and no Archive is
// returned. The returned Archive holds the file open until Close.
func Open(path string, opts ...Option) (*Archive, error) {
	a := newArchive(opts)
	a.path = path

	var (
		c   *cursor.Cursor
		err error
	)
	if a.mapped {
		c, err = cursor.OpenMapped(path)
	} else {
		c, err = cursor.Open(path)
	}
	if err != nil {
		return nil, err
	}
	if err := a.load(c); err != nil {
		_ = c.Close() //nolint:errcheck // the load error is what the caller needs
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return a, nil
}

// Load infers the index of the package in src.
//
// The Archive does not own src; Close only marks the archive closed.
func Load(src Source, opts ...Option) (*Archive, error) {
	a := newArchive(opts)
	if err := a.load(cursor.New(src)); err != nil {
		return nil, err
	}
	return a, nil
}

func newArchive(opts []Option) *Archive {
	a := &Archive{layout: LayoutStandard}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *Archive) load(c *cursor.Cursor) error {
	if a.progress != nil {
		a.progress(madtype.ProgressEvent{
			Stage:      madtype.StageLoading,
			Path:       a.path,
			BytesTotal: uint64(c.Size()), //nolint:gosec // sizes are non-negative
		})
	}

	recs, err := index.Load(c, index.Options{
		Layout:          a.layout,
		LenientReserved: a.lenientReserved,
		Logger:          a.logger,
	})
	if err != nil {
		return err
	}

	a.cur = c
	a.entries = make([]Entry, len(recs))
	a.byName = make(map[string]int, len(recs))
	if a.cacheLimit > 0 {
		if a.cache, err = newARCCache(a.cacheLimit); err != nil {
			return err
		}
	} else {
		a.cache = newSliceCache(len(recs))
	}
	for i, rec := range recs {
		a.entries[i] = entryFromRecord(rec, i)
		// Duplicate names resolve to the first entry, the one a loader
		// scanning the table front to back would find.
		if _, dup := a.byName[a.entries[i].Name]; !dup {
			a.byName[a.entries[i].Name] = i
		}
	}

	a.log().Debug("package loaded", "path", a.path, "entries", len(a.entries), "layout", a.layout.String())
	return nil
}

func entryFromRecord(rec record.Record, i int) Entry {
	return Entry{
		Name:   rec.TrimmedName(),
		Index:  i,
		Offset: rec.Offset,
		Length: rec.Length,
	}
}

// Path returns the path the archive was opened from, or "" for Load.
func (a *Archive) Path() string {
	return a.path
}

// Layout returns the record layout used to read the index.
func (a *Archive) Layout() Layout {
	return a.layout
}

// Size returns the package size in bytes.
func (a *Archive) Size() int64 {
	return a.cur.Size()
}

// Len returns the number of entries.
func (a *Archive) Len() int {
	return len(a.entries)
}

// Entry returns the i-th entry in on-disk order.
func (a *Archive) Entry(i int) (Entry, bool) {
	if i < 0 || i >= len(a.entries) {
		return Entry{}, false
	}
	return a.entries[i], true
}

// Entries returns an iterator over all entries in on-disk order.
func (a *Archive) Entries() iter.Seq[Entry] {
	return func(yield func(Entry) bool) {
		for _, e := range a.entries {
			if !yield(e) {
				return
			}
		}
	}
}

// Lookup returns the first entry with the given name.
func (a *Archive) Lookup(name string) (Entry, bool) {
	i, ok := a.byName[name]
	if !ok {
		return Entry{}, false
	}
	return a.entries[i], true
}

// ReadEntry returns the payload of the i-th entry, reading it on first use.
//
// The returned slice is cached by the archive and must not be modified.
func (a *Archive) ReadEntry(i int) ([]byte, error) {
	if i < 0 || i >= len(a.entries) {
		return nil, fmt.Errorf("entry %d of %d: %w", i, len(a.entries), fs.ErrNotExist)
	}
	if data, ok := a.cache.Get(i); ok {
		return data, nil
	}

	e := a.entries[i]
	if err := a.cur.SeekTo(int64(e.Offset)); err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Name, err)
	}
	buf := make([]byte, e.Length)
	if err := a.cur.ReadFull(buf); err != nil {
		return nil, fmt.Errorf("read %s: %w", e.Name, err)
	}
	a.cache.Add(i, buf)
	return buf, nil
}

// ReadFile implements fs.ReadFileFS.
//
// It returns a copy of the payload of the first entry with the given name.
func (a *Archive) ReadFile(name string) ([]byte, error) {
	i, ok := a.byName[name]
	if !ok {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: fs.ErrNotExist}
	}
	data, err := a.ReadEntry(i)
	if err != nil {
		return nil, &fs.PathError{Op: "readfile", Path: name, Err: err}
	}
	out := make([]byte, len(data))
	copy(out, data)
	return out, nil
}

// Section returns a reader over the i-th entry's payload that is independent
// of the archive's cursor and cache.
func (a *Archive) Section(i int) (*io.SectionReader, bool) {
	if i < 0 || i >= len(a.entries) {
		return nil, false
	}
	e := a.entries[i]
	return a.cur.Section(int64(e.Offset), int64(e.Length)), true
}

// Loaded reports whether the i-th entry's payload is cached.
func (a *Archive) Loaded(i int) bool {
	return i >= 0 && i < len(a.entries) && a.cache.Contains(i)
}

// Release drops every cached payload. Entries stay readable.
func (a *Archive) Release() {
	a.cache.Purge()
}

// Close releases cached payloads and closes the package file if the archive
// opened it. Close is idempotent.
func (a *Archive) Close() error {
	a.Release()
	return a.cur.Close()
}
