package sfpack

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/meigma/sfpack/internal/extract"
)

// ExtractTo recreates the archive's directory tree under destDir.
//
// The root directory entry maps onto destDir, or onto a subdirectory of it
// if the root has a name. destDir is created if needed. Existing
// directories are reused and existing files are replaced unless
// ExtractWithOverwrite(false) is given.
//
// Every file's access and modification times are set to the entry's
// creation time (see ExtractWithTimestampSource).
//
// Files that cannot be created or written are logged as warnings and
// counted in Stats.Failed; extraction continues. Format errors, archive
// read errors and systemic destination failures such as a full disk stop
// the extraction. Nothing already written is removed.
func (a *Archive) ExtractTo(ctx context.Context, destDir string, opts ...ExtractOption) (Stats, error) {
	cfg := defaultExtractConfig()
	for _, opt := range opts {
		opt(&cfg)
	}

	sink, err := extract.NewFileSink(destDir,
		extract.WithOverwrite(cfg.overwrite),
		extract.WithDirectWrites(cfg.directWrites),
		extract.WithPreserveTimes(!cfg.noTimes),
	)
	if err != nil {
		return Stats{}, fmt.Errorf("sfpack: extract: %w", err)
	}
	defer sink.Close()

	x := extract.New(a.src, sink,
		extract.WithWorkers(cfg.workers),
		extract.WithBufferSize(cfg.bufferSize),
		extract.WithTimestampSource(cfg.timestamps),
		extract.WithDigests(cfg.digests),
		extract.WithProgress(cfg.progress),
		extract.WithDisplayRoot(filepath.ToSlash(destDir)),
		extract.WithLogger(a.logger),
	)

	a.log().Debug("extracting archive", "path", a.path, "dest", destDir, "workers", cfg.workers)
	stats, err := x.Run(ctx, a.walker(), a.header.FirstDirOffset)
	if err != nil {
		return stats, fmt.Errorf("sfpack: extract: %w", err)
	}
	a.log().Debug("extracted archive",
		"dest", destDir,
		"dirs", stats.Dirs,
		"files", stats.Files,
		"skipped", stats.Skipped,
		"failed", stats.Failed,
		"bytes", stats.Bytes,
	)
	return stats, nil
}

// errNoPath is returned by Extract for archives created with New.
var errNoPath = errors.New("sfpack: archive has no path; use ExtractTo")

// Extract extracts the archive next to itself, into OutputDir(a.Path()).
func (a *Archive) Extract(ctx context.Context, opts ...ExtractOption) (Stats, error) {
	if a.path == "" {
		return Stats{}, errNoPath
	}
	return a.ExtractTo(ctx, OutputDir(a.path), opts...)
}
