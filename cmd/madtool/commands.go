package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"github.com/meigma/mad"
	madcore "github.com/meigma/mad/core"
)

type unpackConfig struct {
	workers    int
	overwrite  bool
	noManifest bool
	mmap       bool
	lenient    bool
	layout     string
	verbose    bool
	profile    profileConfig
}

func runUnpack(ctx context.Context, e *env, args []string) error {
	var cfg unpackConfig
	fs := flag.NewFlagSet("unpack", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.IntVar(&cfg.workers, "workers", 0, "packages unpacked at once (0 = GOMAXPROCS)")
	fs.BoolVar(&cfg.overwrite, "overwrite", false, "replace files already extracted")
	fs.BoolVar(&cfg.noManifest, "no-manifest", false, "do not write order manifests")
	fs.BoolVar(&cfg.mmap, "mmap", false, "read packages through a memory map")
	fs.BoolVar(&cfg.lenient, "lenient", false, "warn instead of failing on non-zero reserved fields")
	fs.StringVar(&cfg.layout, "layout", "standard", "record layout: standard or reserved")
	fs.BoolVar(&cfg.verbose, "v", false, "verbose logging")
	cfg.profile.register(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	layout, err := parseLayout(cfg.layout)
	if err != nil {
		return err
	}

	logger := newLogger(e.stderr, cfg.verbose)
	stop, err := startProfiles(&cfg.profile, logger)
	if err != nil {
		return err
	}
	defer stop()

	opts := []mad.UnpackOption{
		mad.WithLogger(logger),
		mad.WithLayout(layout),
		mad.WithOverwrite(cfg.overwrite),
		mad.WithManifest(!cfg.noManifest),
		mad.WithMapped(cfg.mmap),
		mad.WithLenientReserved(cfg.lenient),
	}
	if cfg.workers > 0 {
		opts = append(opts, mad.WithWorkers(cfg.workers))
	}
	summary, err := mad.NewUnpacker(opts...).UnpackTree(ctx, fs.Args()...)
	if summary != nil {
		e.p.Fprintf(e.stdout, "%d packages unpacked, %d skipped, %d failed\n",
			summary.Unpacked, summary.Skipped, summary.Failed)
		e.p.Fprintf(e.stdout, "%d files extracted (%d bytes), %d already present, %d failed\n",
			summary.Stats.Extracted, summary.Stats.TotalBytes, summary.Stats.Skipped, summary.Stats.Failed)
	}
	if err != nil {
		return err
	}
	return summary.Err()
}

func runInspect(e *env, args []string) error {
	var (
		digests bool
		layout  string
		lenient bool
	)
	fs := flag.NewFlagSet("inspect", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.BoolVar(&digests, "digests", false, "print a SHA-256 digest per entry")
	fs.StringVar(&layout, "layout", "standard", "record layout: standard or reserved")
	fs.BoolVar(&lenient, "lenient", false, "warn instead of failing on non-zero reserved fields")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("%w: inspect takes one package", errUsage)
	}
	l, err := parseLayout(layout)
	if err != nil {
		return err
	}

	a, err := madcore.Open(fs.Arg(0),
		madcore.WithLayout(l),
		madcore.WithLenientReserved(lenient),
		madcore.WithLogger(newLogger(e.stderr, false)))
	if err != nil {
		return err
	}
	defer a.Close()

	var m *madcore.Manifest
	if digests {
		if m, err = madcore.NewManifest(a); err != nil {
			return err
		}
	}

	tw := tabwriter.NewWriter(e.stdout, 0, 4, 2, ' ', 0)
	header := "#\tNAME\tOFFSET\tLENGTH"
	if digests {
		header += "\tDIGEST"
	}
	fmt.Fprintln(tw, header)
	for ent := range a.Entries() {
		line := e.p.Sprintf("%d\t%s\t%d\t%d", ent.Index, ent.Name, ent.Offset, ent.Length)
		if digests {
			line += "\t" + m.Entries[ent.Index].Digest.String()
		}
		fmt.Fprintln(tw, line)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	e.p.Fprintf(e.stdout, "%d entries, %s layout, %d bytes\n", a.Len(), layoutName(a.Layout()), a.Size())
	return nil
}

func runPack(e *env, args []string) error {
	var (
		dir, manifest, layout, out string
		verbose                    bool
	)
	fs := flag.NewFlagSet("pack", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.StringVar(&dir, "dir", "", "directory of files to pack")
	fs.StringVar(&manifest, "manifest", "", "order manifest (default <dir>.manifest when present)")
	fs.StringVar(&layout, "layout", "", "record layout: standard or reserved (default: manifest layout or standard)")
	fs.StringVar(&out, "out", "", "package file to write")
	fs.BoolVar(&verbose, "v", false, "verbose logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if dir == "" || out == "" {
		return fmt.Errorf("%w: pack needs -dir and -out", errUsage)
	}

	if manifest == "" {
		if _, err := os.Stat(filepath.Clean(dir) + mad.ManifestExt); err == nil {
			manifest = filepath.Clean(dir) + mad.ManifestExt
		}
	}
	var m *madcore.Manifest
	if manifest != "" {
		var err error
		if m, err = madcore.ReadManifestFile(manifest); err != nil {
			return err
		}
	}

	l := madcore.LayoutStandard
	switch {
	case layout != "":
		var err error
		if l, err = parseLayout(layout); err != nil {
			return err
		}
	case m != nil:
		l = m.Layout
	}

	entries, err := madcore.CollectDir(dir, m)
	if err != nil {
		return err
	}
	err = madcore.WriteFile(out, entries,
		madcore.BuildWithLayout(l),
		madcore.BuildWithStoredNames(m != nil),
		madcore.BuildWithLogger(newLogger(e.stderr, verbose)))
	if err != nil {
		return err
	}
	e.p.Fprintf(e.stdout, "packed %d files into %s\n", len(entries), out)
	return nil
}

func runVerify(e *env, args []string) error {
	var lenient bool
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(e.stderr)
	fs.BoolVar(&lenient, "lenient", false, "warn instead of failing on non-zero reserved fields")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 2 {
		return fmt.Errorf("%w: verify takes a package and a manifest", errUsage)
	}

	m, err := madcore.ReadManifestFile(fs.Arg(1))
	if err != nil {
		return err
	}
	a, err := madcore.Open(fs.Arg(0),
		madcore.WithLayout(m.Layout),
		madcore.WithLenientReserved(lenient),
		madcore.WithLogger(newLogger(e.stderr, false)))
	if err != nil {
		return err
	}
	defer a.Close()

	if err := m.VerifyArchive(a); err != nil {
		var joined interface{ Unwrap() []error }
		if errors.As(err, &joined) {
			for _, one := range joined.Unwrap() {
				fmt.Fprintln(e.stderr, one)
			}
			return fmt.Errorf("%w: %d entries differ", madcore.ErrDigestMismatch, len(joined.Unwrap()))
		}
		return err
	}
	e.p.Fprintf(e.stdout, "%s: %d entries match\n", fs.Arg(0), a.Len())
	return nil
}
