// Package walk visits the entries of an sfp archive depth first.
//
// Entries are read on demand with positional reads, one record at a time,
// so memory use does not grow with the size of the archive.
package walk

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"

	"github.com/meigma/sfpack/internal/format"
	"github.com/meigma/sfpack/internal/nametable"
	"github.com/meigma/sfpack/internal/sfptype"
	"github.com/meigma/sfpack/internal/sizing"
)

// DefaultMaxDepth is the default limit on directory nesting.
const DefaultMaxDepth = 512

// Node is a visited entry.
type Node struct {
	// Offset is the byte offset of the entry record.
	Offset uint64

	// Name is the resolved entry name. The root usually has no name.
	Name string

	// Path is the slash-separated path of the entry relative to the
	// extraction root: the names of its ancestors and itself joined by "/".
	Path string

	// Depth is 0 for the root entry.
	Depth int

	// Entry is the decoded record.
	Entry format.Entry
}

// VisitFunc is called for every entry in pre-order.
//
// Returning fs.SkipDir from a directory visit skips its children.
// Any other non-nil error stops the walk and is returned by Walk.
type VisitFunc func(ctx context.Context, n *Node) error

// Walker walks the entry tree of one archive.
// A Walker holds no per-walk state and may run several walks concurrently
// if its source supports concurrent ReadAt calls.
type Walker struct {
	src      io.ReaderAt
	size     int64
	names    *nametable.Table
	maxDepth int
	strict   bool
	logger   *slog.Logger
}

// Option configures a Walker.
type Option func(*Walker)

// WithMaxDepth limits directory nesting. Values < 1 restore the default.
func WithMaxDepth(n int) Option {
	return func(w *Walker) {
		if n < 1 {
			n = DefaultMaxDepth
		}
		w.maxDepth = n
	}
}

// WithStrict enables structural validation of every visited entry.
func WithStrict(strict bool) Option {
	return func(w *Walker) {
		w.strict = strict
	}
}

// WithLogger sets the logger for walk diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(w *Walker) {
		w.logger = logger
	}
}

// New creates a Walker reading records from src, a source of size bytes.
func New(src io.ReaderAt, size int64, names *nametable.Table, opts ...Option) *Walker {
	w := &Walker{
		src:      src,
		size:     size,
		names:    names,
		maxDepth: DefaultMaxDepth,
	}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// log returns the logger, falling back to a discard logger if nil.
func (w *Walker) log() *slog.Logger {
	if w.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return w.logger
}

// Walk visits the entry at root and all of its descendants.
//
// Children of a directory are the records in [StartOffset,
// StartOffset+DataLength), one format.EntrySize apart, visited in
// ascending offset order. ctx is checked before every record is read.
func (w *Walker) Walk(ctx context.Context, root uint64, fn VisitFunc) error {
	err := w.walk(ctx, root, "", 0, fn)
	if errors.Is(err, fs.SkipDir) {
		return nil
	}
	return err
}

func (w *Walker) walk(ctx context.Context, off uint64, parent string, depth int, fn VisitFunc) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if depth > w.maxDepth {
		return fmt.Errorf("entry at %d: %w (limit %d)", off, sfptype.ErrTooDeep, w.maxDepth)
	}

	entry, err := w.ReadEntry(off)
	if err != nil {
		return err
	}
	name, err := w.names.Resolve(entry.NameOffset)
	if err != nil {
		return fmt.Errorf("entry at %d: %w", off, err)
	}
	if w.strict {
		if err := w.validate(off, depth, name, &entry); err != nil {
			return err
		}
	}

	n := &Node{
		Offset: off,
		Name:   name,
		Path:   Join(parent, name),
		Depth:  depth,
		Entry:  entry,
	}
	if err := fn(ctx, n); err != nil {
		return err
	}
	if !entry.Dir() {
		return nil
	}

	end, ok := sizing.AddUint64(entry.StartOffset, uint64(entry.DataLength))
	if !ok {
		return fmt.Errorf("entry at %d: %w", off, sfptype.ErrSizeOverflow)
	}
	w.log().Debug("walk directory", "path", n.Path, "children", uint64(entry.DataLength)/format.EntrySize)
	for child := entry.StartOffset; child < end; child += format.EntrySize {
		err := w.walk(ctx, child, n.Path, depth+1, fn)
		if errors.Is(err, fs.SkipDir) {
			continue
		}
		if err != nil {
			return err
		}
		if child > ^uint64(0)-format.EntrySize {
			break
		}
	}
	return nil
}

// ReadEntry reads and decodes the record at off.
// A short read returns ErrTruncated.
func (w *Walker) ReadEntry(off uint64) (format.Entry, error) {
	pos, err := sizing.ToInt64(off)
	if err != nil {
		return format.Entry{}, fmt.Errorf("entry at %d: %w", off, err)
	}
	var buf [format.EntrySize]byte
	n, err := w.src.ReadAt(buf[:], pos)
	if n < len(buf) {
		if err != nil && !errors.Is(err, io.EOF) {
			return format.Entry{}, fmt.Errorf("read entry at %d: %w", off, err)
		}
		return format.Entry{}, fmt.Errorf("read entry at %d: %w (%d of %d bytes)",
			off, sfptype.ErrTruncated, n, len(buf))
	}
	return format.DecodeEntry(buf[:])
}

// validate applies the strict structural checks to one entry.
func (w *Walker) validate(off uint64, depth int, name string, e *format.Entry) error {
	if e.IsDir > 1 {
		return fmt.Errorf("entry at %d: %w: isDir=%d", off, sfptype.ErrBadEntryKind, e.IsDir)
	}
	if depth > 0 && name == "" {
		return fmt.Errorf("entry at %d: %w: empty name", off, sfptype.ErrCorrupt)
	}
	if e.Dir() {
		if e.DataLength%format.EntrySize != 0 {
			return fmt.Errorf("entry at %d: %w: child span %d is not a multiple of %d",
				off, sfptype.ErrSizeMismatch, e.DataLength, format.EntrySize)
		}
		return nil
	}
	if !sizing.Within(e.StartOffset, uint64(e.DataLength), w.size) {
		return fmt.Errorf("entry at %d: %w: content [%d, +%d) exceeds archive size %d",
			off, sfptype.ErrTruncated, e.StartOffset, e.DataLength, w.size)
	}
	return nil
}

// Join composes a child path from its parent path and name.
// An empty parent yields name unchanged.
func Join(parent, name string) string {
	switch {
	case parent == "":
		return name
	case name == "":
		return parent
	default:
		return parent + "/" + name
	}
}
