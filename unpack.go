package mad

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	madcore "github.com/meigma/mad/core"
)

// ManifestExt is appended to an output directory to name its order manifest.
const ManifestExt = ".manifest"

// UnpackOption configures an Unpacker.
type UnpackOption func(*Unpacker)

// Unpacker extracts packages into directories beside them.
//
// An Unpacker is safe for concurrent use; each package is opened, extracted
// and closed by a single goroutine.
type Unpacker struct {
	workers         int
	skip            []string
	layout          madcore.Layout
	lenientReserved bool
	manifest        bool
	mapped          bool
	overwrite       bool
	logger          *slog.Logger
	progress        ProgressFunc
}

// NewUnpacker creates an Unpacker with the given options.
//
// By default it uses GOMAXPROCS workers, skips DefaultSkipNames, reads the
// standard layout and writes an order manifest for every package.
func NewUnpacker(opts ...UnpackOption) *Unpacker {
	u := &Unpacker{
		workers:  runtime.GOMAXPROCS(0),
		skip:     DefaultSkipNames,
		layout:   madcore.LayoutStandard,
		manifest: true,
	}
	for _, opt := range opts {
		opt(u)
	}
	if u.workers < 1 {
		u.workers = 1
	}
	return u
}

// WithWorkers sets how many packages are unpacked at once.
// Values below 1 are treated as 1.
func WithWorkers(n int) UnpackOption {
	return func(u *Unpacker) {
		u.workers = n
	}
}

// WithSkipNames replaces the list of package base names left packed.
// Pass no names to unpack everything.
func WithSkipNames(names ...string) UnpackOption {
	return func(u *Unpacker) {
		u.skip = names
	}
}

// WithLayout sets the index record layout used to read packages.
func WithLayout(l Layout) UnpackOption {
	return func(u *Unpacker) {
		u.layout = l
	}
}

// WithLenientReserved logs non-zero reserved fields instead of failing.
func WithLenientReserved(enabled bool) UnpackOption {
	return func(u *Unpacker) {
		u.lenientReserved = enabled
	}
}

// WithManifest controls whether an order manifest is written next to each
// output directory. Enabled by default.
func WithManifest(enabled bool) UnpackOption {
	return func(u *Unpacker) {
		u.manifest = enabled
	}
}

// WithMapped reads packages through a read-only memory map.
func WithMapped(enabled bool) UnpackOption {
	return func(u *Unpacker) {
		u.mapped = enabled
	}
}

// WithOverwrite replaces files already present in an output directory.
func WithOverwrite(enabled bool) UnpackOption {
	return func(u *Unpacker) {
		u.overwrite = enabled
	}
}

// WithLogger sets the logger for unpack operations.
func WithLogger(logger *slog.Logger) UnpackOption {
	return func(u *Unpacker) {
		u.logger = logger
	}
}

// WithProgress sets a callback for scan and unpack progress.
// The callback may be invoked from several goroutines at once.
func WithProgress(fn ProgressFunc) UnpackOption {
	return func(u *Unpacker) {
		u.progress = fn
	}
}

func (u *Unpacker) log() *slog.Logger {
	if u.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return u.logger
}

func (u *Unpacker) emit(ev ProgressEvent) {
	if u.progress != nil {
		u.progress(ev)
	}
}

// ArchiveReport is the outcome of unpacking one package.
type ArchiveReport struct {
	// Path is the package that was unpacked.
	Path string

	// Dir is the output directory. Empty when the package was skipped.
	Dir string

	// Skipped is true when the package name is on the skip list.
	Skipped bool

	// Results holds one entry per index record, in on-disk order.
	Results []ExtractResult

	// Stats summarizes Results.
	Stats ExtractStats

	// Manifest is the order manifest, when one was written.
	Manifest *Manifest

	// Err is set when the package could not be opened, or when any entry
	// failed to extract.
	Err error
}

// Summary aggregates the reports of an UnpackTree run.
type Summary struct {
	// Archives holds one report per package found, sorted by path.
	Archives []*ArchiveReport

	// ScanErrors holds errors met while walking the roots.
	ScanErrors []error

	// Stats totals the entry statistics of every package.
	Stats ExtractStats

	// Unpacked, Skipped and Failed count packages.
	Unpacked int
	Skipped  int
	Failed   int
}

// Err joins every scan and package error, or returns nil.
func (s *Summary) Err() error {
	errs := slices.Clone(s.ScanErrors)
	for _, r := range s.Archives {
		if r.Err != nil {
			errs = append(errs, r.Err)
		}
	}
	return errors.Join(errs...)
}

func (s *Summary) add(r *ArchiveReport) {
	s.Archives = append(s.Archives, r)
	switch {
	case r.Skipped:
		s.Skipped++
	case r.Err != nil:
		s.Failed++
	default:
		s.Unpacked++
	}
	s.Stats.Extracted += r.Stats.Extracted
	s.Stats.Skipped += r.Stats.Skipped
	s.Stats.Failed += r.Stats.Failed
	s.Stats.TotalBytes += r.Stats.TotalBytes
}

// OutputDir returns the directory a package is unpacked into: its path with
// the extension removed, or path + ".d" when it has no extension.
func OutputDir(path string) string {
	ext := filepath.Ext(path)
	if ext == "" || filepath.Base(path) == ext {
		return path + ".d"
	}
	return path[:len(path)-len(ext)]
}

// UnpackFile extracts the package at path into OutputDir(path).
//
// A package on the skip list yields a report with Skipped set and no error.
// Per-entry failures are reported in ArchiveReport.Err and never stop the
// remaining entries. The returned error is non-nil only when the package
// could not be opened or indexed, or when ctx was cancelled.
func (u *Unpacker) UnpackFile(ctx context.Context, path string) (*ArchiveReport, error) {
	report := &ArchiveReport{Path: path}
	if skipped(path, u.skip) {
		u.log().Info("skipping package", "path", path)
		report.Skipped = true
		return report, nil
	}

	a, err := madcore.Open(path,
		madcore.WithLayout(u.layout),
		madcore.WithLenientReserved(u.lenientReserved),
		madcore.WithMapped(u.mapped),
		madcore.WithLogger(u.logger),
		madcore.WithProgress(u.progress))
	if err != nil {
		report.Err = err
		return report, err
	}
	defer a.Close()

	report.Dir = OutputDir(path)
	extracted, err := a.ExtractDir(ctx, report.Dir, madcore.WithOverwrite(u.overwrite))
	if extracted != nil {
		report.Results = extracted.Results
		report.Stats = extracted.Stats
		report.Err = extracted.Err()
	}
	if err != nil {
		report.Err = errors.Join(report.Err, err)
		return report, err
	}

	if u.manifest {
		if err := u.writeManifest(a, report); err != nil {
			report.Err = errors.Join(report.Err, err)
		}
	}
	return report, nil
}

func (u *Unpacker) writeManifest(a *madcore.Archive, report *ArchiveReport) error {
	m, err := madcore.NewManifest(a)
	if err != nil {
		return fmt.Errorf("build manifest for %s: %w", report.Path, err)
	}
	target := report.Dir + ManifestExt
	if err := m.WriteFile(target); err != nil {
		return fmt.Errorf("write manifest %s: %w", target, err)
	}
	report.Manifest = m
	u.log().Debug("manifest written", "path", target, "entries", len(m.Entries))
	return nil
}

// UnpackTree scans roots for packages and unpacks them, several at a time.
// With no roots it scans DefaultRoots.
//
// Failures are collected per package in the Summary and never abort the
// batch. UnpackTree returns an error only when ctx is cancelled, together
// with the reports gathered so far.
func (u *Unpacker) UnpackTree(ctx context.Context, roots ...string) (*Summary, error) {
	if len(roots) == 0 {
		roots = DefaultRoots
	}

	summary := &Summary{}
	var paths []string
	for _, root := range roots {
		for path, err := range Scan(ctx, root) {
			if err != nil {
				if ctxErr := ctx.Err(); ctxErr != nil {
					return summary, ctxErr
				}
				u.log().Warn("scan error", "root", root, "error", err)
				summary.ScanErrors = append(summary.ScanErrors, err)
				continue
			}
			paths = append(paths, path)
			u.emit(ProgressEvent{Stage: StageScanning, Path: path, FilesDone: len(paths)})
		}
	}
	u.log().Info("scan complete", "roots", roots, "packages", len(paths))

	var (
		mu   sync.Mutex
		done int
	)
	var g errgroup.Group
	g.SetLimit(u.workers)
	for _, path := range paths {
		if ctx.Err() != nil {
			break
		}
		g.Go(func() error {
			report, err := u.UnpackFile(ctx, path)
			if err != nil && ctx.Err() == nil {
				u.log().Warn("package failed", "path", path, "error", err)
			}

			mu.Lock()
			defer mu.Unlock()
			summary.add(report)
			done++
			u.emit(ProgressEvent{
				Stage:      StageExtracting,
				Path:       path,
				FilesDone:  done,
				FilesTotal: len(paths),
			})
			return nil
		})
	}
	_ = g.Wait()

	slices.SortFunc(summary.Archives, func(a, b *ArchiveReport) int {
		return strings.Compare(a.Path, b.Path)
	})
	if err := ctx.Err(); err != nil {
		return summary, err
	}
	u.log().Info("unpack complete",
		"unpacked", summary.Unpacked,
		"skipped", summary.Skipped,
		"failed", summary.Failed,
		"files", summary.Stats.Extracted)
	return summary, nil
}
