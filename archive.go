package sfpack

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/meigma/sfpack/internal/format"
	"github.com/meigma/sfpack/internal/nametable"
	"github.com/meigma/sfpack/internal/sizing"
	"github.com/meigma/sfpack/internal/walk"
)

// maxLabelSize bounds the read of a package label stored outside the
// name table.
const maxLabelSize = 256

// Archive is an opened sfp archive.
//
// The header and name table are loaded when the archive is opened; entry
// records and file content are read on demand. An Archive is safe for
// concurrent use if its source is.
type Archive struct {
	src    ByteSource
	closer io.Closer
	path   string

	header Header
	names  *nametable.Table

	logger   *slog.Logger
	strict   bool
	mmap     bool
	maxDepth int
}

// Open opens the archive at path.
//
// The file is read with positional reads, or through a read-only memory
// mapping when WithMemoryMap is set. The caller must Close the archive.
func Open(path string, opts ...Option) (*Archive, error) {
	a := &Archive{path: path}
	for _, opt := range opts {
		opt(a)
	}

	var src interface {
		ByteSource
		io.Closer
	}
	var err error
	if a.mmap {
		src, err = openMmapSource(path)
	} else {
		src, err = openFileSource(path)
	}
	if err != nil {
		return nil, fmt.Errorf("sfpack: open: %w", err)
	}

	if err := a.init(src); err != nil {
		_ = src.Close() //nolint:errcheck // best-effort cleanup
		return nil, err
	}
	a.closer = src
	return a, nil
}

// New reads the archive held by src.
//
// The caller retains ownership of src; Close does not close it.
func New(src ByteSource, opts ...Option) (*Archive, error) {
	a := &Archive{}
	for _, opt := range opts {
		opt(a)
	}
	if err := a.init(src); err != nil {
		return nil, err
	}
	return a, nil
}

// init reads the header and loads the name table.
func (a *Archive) init(src ByteSource) error {
	a.src = src
	size := src.Size()

	var buf [format.HeaderSize]byte
	n, err := src.ReadAt(buf[:], 0)
	if n < len(buf) && err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("sfpack: read header: %w", err)
	}
	h, err := format.DecodeHeader(buf[:n])
	if err != nil {
		return fmt.Errorf("sfpack: %w", err)
	}
	a.header = h
	a.log().Debug("read archive header", "path", a.path, "header", h)

	if a.strict && h.ArchiveSize != uint64(size) {
		return fmt.Errorf("sfpack: %w: header records %d bytes, archive has %d",
			ErrSizeMismatch, h.ArchiveSize, size)
	}

	tableSize, err := h.NameTableSize()
	if err != nil {
		return fmt.Errorf("sfpack: %w", err)
	}
	if !sizing.Within(h.NameTableOffset, tableSize, size) {
		return fmt.Errorf("sfpack: name table [%d, %d): %w (archive has %d bytes)",
			h.NameTableOffset, h.DataOffset, ErrTruncated, size)
	}
	table := make([]byte, tableSize)
	if _, err := src.ReadAt(table, int64(h.NameTableOffset)); err != nil && !errors.Is(err, io.EOF) {
		return fmt.Errorf("sfpack: read name table: %w", err)
	}
	a.names = nametable.New(table, h.NameTableOffset)
	a.log().Debug("loaded name table", "offset", h.NameTableOffset, "bytes", a.names.Len())
	return nil
}

// log returns the logger, falling back to a discard logger if nil.
func (a *Archive) log() *slog.Logger {
	if a.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return a.logger
}

// Close releases the archive's file if it was opened with Open.
func (a *Archive) Close() error {
	if a.closer == nil {
		return nil
	}
	err := a.closer.Close()
	a.closer = nil
	return err
}

// Path returns the path the archive was opened from, or "" for archives
// created with New.
func (a *Archive) Path() string {
	return a.path
}

// Header returns the parsed archive header.
func (a *Archive) Header() Header {
	return a.header
}

// Label returns the package label, or "" if the archive has none.
//
// The label is normally stored in the name table. A label outside the
// table is read directly from the archive, up to the first NUL byte.
func (a *Archive) Label() (string, error) {
	off := a.header.PackageLabelOffset
	if off == 0 {
		return "", nil
	}
	if a.names.Contains(off) {
		label, err := a.names.Resolve(off)
		if err != nil {
			return "", fmt.Errorf("sfpack: label: %w", err)
		}
		return label, nil
	}

	size := a.src.Size()
	if off >= uint64(size) {
		return "", fmt.Errorf("sfpack: label at %d: %w (archive has %d bytes)", off, ErrNameOutOfRange, size)
	}
	buf := make([]byte, min(uint64(maxLabelSize), uint64(size)-off))
	n, err := a.src.ReadAt(buf, int64(off))
	if n < len(buf) && err != nil && !errors.Is(err, io.EOF) {
		return "", fmt.Errorf("sfpack: read label: %w", err)
	}
	buf = buf[:n]
	if i := bytes.IndexByte(buf, 0); i >= 0 {
		buf = buf[:i]
	}
	return string(buf), nil
}

// WalkFunc is called for every entry visited by Walk.
//
// Returning fs.SkipDir from a directory skips its children. Any other
// non-nil error stops the walk and is returned by Walk.
type WalkFunc func(e *Entry) error

// Walk visits every entry reachable from the root directory in pre-order,
// children in ascending record order. Nothing is written to disk.
func (a *Archive) Walk(ctx context.Context, fn WalkFunc) error {
	err := a.walker().Walk(ctx, a.header.FirstDirOffset, func(_ context.Context, n *walk.Node) error {
		return fn(n)
	})
	if err != nil {
		return fmt.Errorf("sfpack: walk: %w", err)
	}
	return nil
}

func (a *Archive) walker() *walk.Walker {
	return walk.New(a.src, a.src.Size(), a.names,
		walk.WithMaxDepth(a.maxDepth),
		walk.WithStrict(a.strict),
		walk.WithLogger(a.logger),
	)
}
