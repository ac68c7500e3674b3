package mad

import (
	"bytes"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/meigma/mad/core/internal/madtype"
	"github.com/meigma/mad/core/internal/record"
	"github.com/meigma/mad/core/internal/sizing"
)

// BuildEntry is a named payload to be written into a package.
type BuildEntry struct {
	Name string
	Data []byte
}

// BuildOption configures Build, Write, WriteFile and Rebuild.
type BuildOption func(*buildConfig)

type buildConfig struct {
	layout   Layout
	logger   *slog.Logger
	progress ProgressFunc
	stored   bool
}

func (c *buildConfig) log() *slog.Logger {
	if c.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return c.logger
}

// BuildWithLayout selects the record layout to write. Defaults to LayoutStandard.
func BuildWithLayout(l Layout) BuildOption {
	return func(c *buildConfig) {
		c.layout = l
	}
}

// BuildWithLogger sets the logger for package writes.
func BuildWithLogger(logger *slog.Logger) BuildOption {
	return func(c *buildConfig) {
		c.logger = logger
	}
}

// BuildWithProgress sets a callback receiving one event per written payload.
func BuildWithProgress(fn ProgressFunc) BuildOption {
	return func(c *buildConfig) {
		c.progress = fn
	}
}

// BuildWithStoredNames accepts names exactly as a load reads them: empty
// names and names filling the whole field. Use it to write back entries
// taken from an existing package; new names should leave it off so every
// name stays NUL-terminated.
func BuildWithStoredNames(enabled bool) BuildOption {
	return func(c *buildConfig) {
		c.stored = enabled
	}
}

func newBuildConfig(opts []BuildOption) *buildConfig {
	cfg := &buildConfig{layout: LayoutStandard}
	for _, opt := range opts {
		opt(cfg)
	}
	return cfg
}

// buildPlan is a validated package layout ready to be written.
type buildPlan struct {
	layout  Layout
	records []record.Record
	// size is the package size before any padding.
	size uint64
	// pad is set when a trailing empty payload would start at the end of
	// the file, which readers reject. One zero byte keeps offset < size.
	pad bool
}

// plan validates entries and computes their offsets without writing anything.
// With stored set, names are checked with record.CheckStoredName.
func plan(entries []BuildEntry, layout Layout, stored bool) (*buildPlan, error) {
	if err := layout.Validate(); err != nil {
		return nil, err
	}
	p := &buildPlan{layout: layout, records: make([]record.Record, len(entries))}
	if len(entries) == 0 {
		return p, nil
	}

	tableSize, ok := sizing.MulUint64(uint64(len(entries)), uint64(layout.Size()))
	if !ok || tableSize > sizing.MaxArchiveSize {
		return nil, fmt.Errorf("%w: index table for %d entries", madtype.ErrSizeOverflow, len(entries))
	}

	offset := tableSize
	for i, e := range entries {
		checkName := record.CheckName
		if stored {
			checkName = record.CheckStoredName
		}
		if err := checkName(layout, e.Name); err != nil {
			return nil, fmt.Errorf("entry %d: %w", i, err)
		}
		off, err := sizing.ToUint32(offset, madtype.ErrSizeOverflow)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): offset %d: %w", i, e.Name, offset, err)
		}
		length, err := sizing.ToUint32(uint64(len(e.Data)), madtype.ErrSizeOverflow)
		if err != nil {
			return nil, fmt.Errorf("entry %d (%s): length %d: %w", i, e.Name, len(e.Data), err)
		}
		p.records[i] = record.Record{Name: []byte(e.Name), Offset: off, Length: length}
		offset += uint64(length)
	}

	p.size = offset
	p.pad = uint64(p.records[len(p.records)-1].Offset) == p.size
	total := p.size
	if p.pad {
		total++
	}
	if total > sizing.MaxArchiveSize {
		return nil, fmt.Errorf("%w: package would be %d bytes", madtype.ErrSizeOverflow, total)
	}
	return p, nil
}

// Build serializes entries into a package held in memory.
func Build(entries []BuildEntry, opts ...BuildOption) ([]byte, error) {
	var buf bytes.Buffer
	if _, err := Write(&buf, entries, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Write serializes entries to w and returns the number of bytes written.
//
// The index table is written first, then every payload in the same order.
// Entry order is preserved exactly. Every entry is validated before the
// first byte is written, so a rejected name or an oversized package leaves
// w untouched.
func Write(w io.Writer, entries []BuildEntry, opts ...BuildOption) (int64, error) {
	cfg := newBuildConfig(opts)
	p, err := plan(entries, cfg.layout, cfg.stored)
	if err != nil {
		return 0, err
	}

	cw := &sizing.CountingWriter{W: w}
	if err := writePlan(cw, p, entries, cfg); err != nil {
		return int64(cw.N), err //nolint:gosec // bounded by MaxArchiveSize
	}
	cfg.log().Debug("package written", "entries", len(entries), "bytes", cw.N, "layout", cfg.layout.String())
	return int64(cw.N), nil //nolint:gosec // bounded by MaxArchiveSize
}

func writePlan(w io.Writer, p *buildPlan, entries []BuildEntry, cfg *buildConfig) error {
	recSize := p.layout.Size()
	table := make([]byte, recSize*len(p.records))
	for i, rec := range p.records {
		if err := record.Encode(p.layout, rec, table[i*recSize:(i+1)*recSize]); err != nil {
			return err
		}
	}
	if _, err := w.Write(table); err != nil {
		return fmt.Errorf("write index table: %w", err)
	}

	var done uint64
	for i, e := range entries {
		if _, err := w.Write(e.Data); err != nil {
			return fmt.Errorf("write payload %s: %w", e.Name, err)
		}
		done += uint64(len(e.Data))
		if cfg.progress != nil {
			cfg.progress(ProgressEvent{
				Stage:      StageBuilding,
				Path:       e.Name,
				BytesDone:  done,
				BytesTotal: p.size,
				FilesDone:  i + 1,
				FilesTotal: len(entries),
			})
		}
	}

	if p.pad {
		if _, err := w.Write([]byte{0}); err != nil {
			return fmt.Errorf("write padding: %w", err)
		}
	}
	return nil
}

// WriteFile writes a package to path atomically.
//
// The package is written to a temp file in the same directory and renamed
// into place, so a failure never leaves a partial package at path. Parent
// directories are created as needed.
func WriteFile(path string, entries []BuildEntry, opts ...BuildOption) error {
	cfg := newBuildConfig(opts)
	p, err := plan(entries, cfg.layout, cfg.stored)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return fmt.Errorf("create package directory: %w", err)
	}
	return writeFileAtomic(path, func(w io.Writer) error {
		return writePlan(w, p, entries, cfg)
	})
}

// writeFileAtomic streams fn's output to a temp file then renames it to
// target, ensuring atomic replacement of the target file.
func writeFileAtomic(target string, fn func(io.Writer) error) error {
	tmp, err := os.CreateTemp(filepath.Dir(target), ".mad-*")
	if err != nil {
		return err
	}
	tmpPath := tmp.Name()

	if err := fn(tmp); err != nil {
		tmp.Close()
		os.Remove(tmpPath)
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return err
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return err
	}
	return nil
}

// BuildEntries reads every payload and returns the archive's contents as
// build input in on-disk order.
func (a *Archive) BuildEntries() ([]BuildEntry, error) {
	out := make([]BuildEntry, len(a.entries))
	for i, e := range a.entries {
		data, err := a.ReadEntry(i)
		if err != nil {
			return nil, err
		}
		out[i] = BuildEntry{Name: e.Name, Data: data}
	}
	return out, nil
}

// Rebuild re-serializes the archive to w in its own entry order, using the
// archive's layout unless opts select another.
//
// Names are written back as loaded, so empty names and names filling the
// whole field are kept. Rebuilding a package written by Build reproduces it
// byte for byte.
func (a *Archive) Rebuild(w io.Writer, opts ...BuildOption) (int64, error) {
	entries, err := a.BuildEntries()
	if err != nil {
		return 0, err
	}
	opts = append([]BuildOption{BuildWithLayout(a.layout)}, opts...)
	opts = append(opts, BuildWithStoredNames(true))
	return Write(w, entries, opts...)
}
