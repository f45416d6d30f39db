// Command sfpack extracts sequential-file-package (.sfp) archives.
//
// Usage:
//
//	sfpack [options] <archive.sfp | directory>
//
// Each archive is extracted next to itself, into a directory named after
// the archive without its extension. Given a directory, every *.sfp file
// directly inside it is extracted in turn. One line is printed per visited
// entry.
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
	"path/filepath"
	"sort"
	"strings"
	"syscall"

	"github.com/meigma/sfpack"
)

const archiveExt = ".sfp"

type config struct {
	output   string
	workers  int
	strict   bool
	mmap     bool
	keep     bool
	modified bool
	direct   bool
	noTimes  bool
	digests  bool
	maxDepth int
	verbose  bool
	quiet    bool
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}

// run executes the command and returns the process exit code.
func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	fset := flag.NewFlagSet("sfpack", flag.ContinueOnError)
	fset.SetOutput(stderr)

	var cfg config
	fset.StringVar(&cfg.output, "o", "", "extract into this directory instead of next to the archive")
	fset.IntVar(&cfg.workers, "workers", -1, "concurrent file copies (<0 serial, 0 = GOMAXPROCS)")
	fset.BoolVar(&cfg.strict, "strict", false, "validate archive structure")
	fset.BoolVar(&cfg.mmap, "mmap", false, "memory-map the archive")
	fset.BoolVar(&cfg.keep, "keep", false, "keep existing files instead of overwriting them")
	fset.BoolVar(&cfg.modified, "modified", false, "stamp files with their modification time instead of their creation time")
	fset.BoolVar(&cfg.direct, "direct", false, "write files in place instead of through a temporary file")
	fset.BoolVar(&cfg.noTimes, "no-times", false, "leave file timestamps at the time of extraction")
	fset.BoolVar(&cfg.digests, "digests", false, "print the sha256 digest of every extracted file")
	fset.IntVar(&cfg.maxDepth, "max-depth", sfpack.DefaultMaxDepth, "maximum directory nesting")
	fset.BoolVar(&cfg.verbose, "v", false, "debug logging")
	fset.BoolVar(&cfg.quiet, "q", false, "do not print visited entries")
	fset.Usage = func() {
		fmt.Fprintln(stderr, "usage: sfpack [options] <archive.sfp | directory>")
		fmt.Fprintln(stderr)
		fmt.Fprintln(stderr, "options:")
		fset.PrintDefaults()
	}
	if err := fset.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return 0
		}
		return 1
	}
	if fset.NArg() < 1 {
		fset.Usage()
		return 1
	}

	level := slog.LevelInfo
	if cfg.verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: level}))

	target := fset.Arg(0)
	archives, err := collectArchives(target)
	if err != nil {
		logger.Error("cannot read input", "path", target, "error", err)
		return 1
	}
	if len(archives) == 0 {
		logger.Warn("no archives found", "dir", target)
		return 0
	}
	if cfg.output != "" && len(archives) > 1 {
		logger.Error("-o requires a single archive", "archives", len(archives))
		return 1
	}

	code := 0
	for _, path := range archives {
		if err := extractOne(ctx, path, &cfg, stdout, logger); err != nil {
			logger.Error("extraction failed", "archive", path, "error", err)
			code = 1
			if ctx.Err() != nil {
				break
			}
		}
	}
	return code
}

// collectArchives returns target itself, or the *.sfp files directly inside
// it if target is a directory.
func collectArchives(target string) ([]string, error) {
	info, err := os.Stat(target)
	if err != nil {
		return nil, err
	}
	if !info.IsDir() {
		return []string{target}, nil
	}

	entries, err := os.ReadDir(target)
	if err != nil {
		return nil, err
	}
	var archives []string
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), archiveExt) {
			continue
		}
		archives = append(archives, filepath.Join(target, e.Name()))
	}
	sort.Strings(archives)
	return archives, nil
}

func extractOne(ctx context.Context, path string, cfg *config, stdout io.Writer, logger *slog.Logger) error {
	arc, err := sfpack.Open(path,
		sfpack.WithLogger(logger),
		sfpack.WithStrict(cfg.strict),
		sfpack.WithMemoryMap(cfg.mmap),
		sfpack.WithMaxDepth(cfg.maxDepth),
	)
	if err != nil {
		return err
	}
	defer arc.Close()

	if label, err := arc.Label(); err != nil {
		logger.Warn("cannot read package label", "archive", path, "error", err)
	} else if label != "" {
		logger.Info("package", "archive", path, "label", label)
	}

	timestamps := sfpack.TimestampCreated
	if cfg.modified {
		timestamps = sfpack.TimestampModified
	}
	opts := []sfpack.ExtractOption{
		sfpack.ExtractWithWorkers(cfg.workers),
		sfpack.ExtractWithOverwrite(!cfg.keep),
		sfpack.ExtractWithDirectWrites(cfg.direct),
		sfpack.ExtractWithPreserveTimes(!cfg.noTimes),
		sfpack.ExtractWithTimestampSource(timestamps),
		sfpack.ExtractWithDigests(cfg.digests),
		sfpack.ExtractWithProgress(tracer(stdout, cfg)),
	}

	dest := cfg.output
	if dest == "" {
		dest = sfpack.OutputDir(path)
	}
	stats, err := arc.ExtractTo(ctx, dest, opts...)
	if err != nil {
		return err
	}

	logger.Info(fmt.Sprintf("%d files extracted into %d folders", stats.Files, stats.Dirs),
		"archive", path,
		"dest", dest,
		"bytes", stats.Bytes,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
	)
	return nil
}

// tracer prints one line per visited entry and, with -digests, one line
// per extracted file. Events may arrive from several workers, but visiting
// events always come from the walking goroutine in archive order.
func tracer(stdout io.Writer, cfg *config) sfpack.ProgressFunc {
	if cfg.quiet && !cfg.digests {
		return nil
	}
	out := &lockedWriter{w: stdout}
	return func(ev sfpack.ProgressEvent) {
		switch ev.Stage {
		case sfpack.StageVisiting:
			if !cfg.quiet {
				out.printf("%s\n", filepath.FromSlash(ev.Path))
			}
		case sfpack.StageExtracted:
			if cfg.digests {
				out.printf("%s  %s\n", ev.Digest.Encoded(), filepath.FromSlash(ev.Path))
			}
		}
	}
}
