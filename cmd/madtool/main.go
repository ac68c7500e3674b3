// Command madtool unpacks, inspects, packs and verifies MAD/MTD packages.
//
// Usage:
//
//	madtool unpack [-workers N] [-overwrite] [-no-manifest] [-mmap] [paths...]
//	madtool inspect [-digests] <package>
//	madtool pack -dir D [-manifest M] [-layout standard|reserved] -out F
//	madtool verify <package> <manifest>
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"runtime/pprof"

	"github.com/felixge/fgprof"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	madcore "github.com/meigma/mad/core"
)

const usage = `usage: madtool <command> [flags] [args]

commands:
  unpack   extract every package under the given roots (default Chars, Maps)
  inspect  list the entries of a package
  pack     build a package from a directory
  verify   check a package against an order manifest
`

// errUsage marks command line mistakes; run prints usage and exits 2.
var errUsage = errors.New("usage")

// env carries the process streams so commands can be run from tests.
type env struct {
	stdout io.Writer
	stderr io.Writer
	p      *message.Printer
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	if len(args) == 0 {
		fmt.Fprint(stderr, usage)
		return 2
	}
	e := &env{stdout: stdout, stderr: stderr, p: message.NewPrinter(language.English)}

	var err error
	switch args[0] {
	case "unpack":
		err = runUnpack(ctx, e, args[1:])
	case "inspect":
		err = runInspect(e, args[1:])
	case "pack":
		err = runPack(e, args[1:])
	case "verify":
		err = runVerify(e, args[1:])
	case "help", "-h", "-help", "--help":
		fmt.Fprint(stdout, usage)
		return 0
	default:
		fmt.Fprintf(stderr, "madtool: unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	switch {
	case err == nil:
		return 0
	case errors.Is(err, flag.ErrHelp):
		return 0
	case errors.Is(err, errUsage):
		fmt.Fprintf(stderr, "madtool %s: %v\n", args[0], err)
		return 2
	default:
		fmt.Fprintf(stderr, "madtool %s: %v\n", args[0], err)
		return 1
	}
}

// newLogger writes text logs to w, at debug level when verbose is set.
func newLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

func parseLayout(name string) (madcore.Layout, error) {
	switch name {
	case "", "standard":
		return madcore.LayoutStandard, nil
	case "reserved":
		return madcore.LayoutReserved, nil
	default:
		return madcore.Layout{}, fmt.Errorf("%w: unknown layout %q", errUsage, name)
	}
}

func layoutName(l madcore.Layout) string {
	switch l {
	case madcore.LayoutStandard:
		return "standard"
	case madcore.LayoutReserved:
		return "reserved"
	default:
		return fmt.Sprintf("name=%d reserved=%d", l.NameSize, l.ReservedSize)
	}
}

// startProfiles starts the CPU and wall-clock profilers requested in cfg.
// The returned func stops them and closes their files.
func startProfiles(cfg *profileConfig, log *slog.Logger) (func(), error) {
	var stops []func()
	stopAll := func() {
		for i := len(stops) - 1; i >= 0; i-- {
			stops[i]()
		}
	}

	if cfg.fgProfile != "" {
		fgFile, err := os.Create(cfg.fgProfile)
		if err != nil {
			return nil, err
		}
		stopFG := fgprof.Start(fgFile, fgprof.FormatPprof)
		stops = append(stops, func() {
			if err := stopFG(); err != nil {
				log.Warn("fgprof stop error", "error", err)
			}
			_ = fgFile.Close()
		})
	}

	if cfg.cpuProfile != "" {
		cpuFile, err := os.Create(cfg.cpuProfile)
		if err != nil {
			stopAll()
			return nil, err
		}
		if err := pprof.StartCPUProfile(cpuFile); err != nil {
			_ = cpuFile.Close()
			stopAll()
			return nil, err
		}
		stops = append(stops, func() {
			pprof.StopCPUProfile()
			_ = cpuFile.Close()
		})
	}
	return stopAll, nil
}

type profileConfig struct {
	cpuProfile string
	fgProfile  string
}

func (c *profileConfig) register(fs *flag.FlagSet) {
	fs.StringVar(&c.cpuProfile, "cpuprofile", "", "write CPU profile to file")
	fs.StringVar(&c.fgProfile, "fgprofile", "", "write fgprof (wall clock) profile to file")
}
