// Package extract materializes the entries of an sfp archive on disk.
//
// The walk (entry reads, directory creation and progress events) runs on
// the caller's goroutine in pre-order, so visit order is deterministic.
// File content copies may be handed to a bounded worker pool; a directory
// is always created before any of its children is visited.
package extract

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"hash"
	"io"
	"log/slog"
	"runtime"
	"sync"
	"time"

	"github.com/opencontainers/go-digest"
	"golang.org/x/sync/errgroup"

	"github.com/meigma/sfpack/internal/format"
	"github.com/meigma/sfpack/internal/platform"
	"github.com/meigma/sfpack/internal/sfptype"
	"github.com/meigma/sfpack/internal/walk"
)

// TimestampSource selects which entry time is applied to extracted files.
type TimestampSource uint8

const (
	// TimestampCreated applies the entry's creation time as both access and
	// modification time. This matches the archive tool's own extractor.
	TimestampCreated TimestampSource = iota

	// TimestampModified applies the entry's modification time instead.
	TimestampModified
)

// String returns the name of the source.
func (s TimestampSource) String() string {
	switch s {
	case TimestampCreated:
		return "created"
	case TimestampModified:
		return "modified"
	default:
		return "unknown"
	}
}

func (s TimestampSource) time(e *format.Entry) time.Time {
	if s == TimestampModified {
		return e.Modified()
	}
	return e.Created()
}

// Extractor copies archive entries into a Sink.
type Extractor struct {
	src         io.ReaderAt
	sink        Sink
	workers     int // 0 = GOMAXPROCS, <0 = serial, >0 = fixed count
	bufferSize  int
	timestamps  TimestampSource
	digests     bool
	progress    sfptype.ProgressFunc
	displayRoot string
	logger      *slog.Logger
	bufs        sync.Pool
}

// Option configures an Extractor.
type Option func(*Extractor)

// WithWorkers sets the number of concurrent file copies.
// Values < 0 force serial processing. Zero uses GOMAXPROCS.
func WithWorkers(n int) Option {
	return func(x *Extractor) {
		x.workers = n
	}
}

// WithBufferSize sets the copy buffer size. Values < 1 restore the default.
func WithBufferSize(n int) Option {
	return func(x *Extractor) {
		if n < 1 {
			n = DefaultBufferSize
		}
		x.bufferSize = n
	}
}

// WithTimestampSource selects the entry time applied to files.
func WithTimestampSource(s TimestampSource) Option {
	return func(x *Extractor) {
		x.timestamps = s
	}
}

// WithDigests enables SHA-256 digests of extracted content in progress events.
func WithDigests(enabled bool) Option {
	return func(x *Extractor) {
		x.digests = enabled
	}
}

// WithProgress sets the progress callback.
func WithProgress(fn sfptype.ProgressFunc) Option {
	return func(x *Extractor) {
		x.progress = fn
	}
}

// WithDisplayRoot sets the prefix used for paths in progress events.
// Event paths are displayRoot, or displayRoot + "/" + entry path.
func WithDisplayRoot(root string) Option {
	return func(x *Extractor) {
		x.displayRoot = root
	}
}

// WithLogger sets the logger for extraction diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(x *Extractor) {
		x.logger = logger
	}
}

// New creates an Extractor reading content from src and writing to sink.
func New(src io.ReaderAt, sink Sink, opts ...Option) *Extractor {
	x := &Extractor{
		src:        src,
		sink:       sink,
		bufferSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(x)
	}
	size := x.bufferSize
	x.bufs.New = func() any {
		b := make([]byte, size)
		return &b
	}
	return x
}

// log returns the logger, falling back to a discard logger if nil.
func (x *Extractor) log() *slog.Logger {
	if x.logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return x.logger
}

// Run walks the tree rooted at the entry at offset root and materializes
// every entry.
//
// Per-entry destination failures are logged and counted in Stats.Failed.
// Format errors, source read errors and systemic destination errors stop
// the extraction; Run then waits for in-flight copies before returning.
func (x *Extractor) Run(ctx context.Context, w *walk.Walker, root uint64) (Stats, error) {
	var c counters
	workers := x.workerCount()

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)

	visit := func(ctx context.Context, n *walk.Node) error {
		x.emit(sfptype.ProgressEvent{
			Stage: sfptype.StageVisiting,
			Path:  x.display(n.Path),
			Dir:   n.Entry.Dir(),
		})
		if n.Entry.Dir() {
			return x.makeDir(n, &c)
		}
		if !x.sink.ShouldProcess(n.Path) {
			c.skipped.Add(1)
			x.log().Debug("skipping existing file", "path", n.Path)
			return nil
		}
		if workers < 2 {
			return x.extractFile(ctx, n, &c)
		}
		g.Go(func() error {
			return x.extractFile(gctx, n, &c)
		})
		return nil
	}

	walkErr := w.Walk(gctx, root, visit)
	groupErr := g.Wait()
	stats := c.snapshot()
	// A failed worker cancels gctx, which surfaces in the walk as a
	// context error; report the worker's cause instead.
	if groupErr != nil {
		return stats, groupErr
	}
	return stats, walkErr
}

func (x *Extractor) workerCount() int {
	switch {
	case x.workers < 0:
		return 1
	case x.workers == 0:
		return max(runtime.GOMAXPROCS(0), 1)
	default:
		return x.workers
	}
}

func (x *Extractor) makeDir(n *walk.Node, c *counters) error {
	if err := x.sink.Mkdir(n.Path); err != nil {
		return x.entryFailure(n, "mkdir", err, c)
	}
	c.dirs.Add(1)
	return nil
}

func (x *Extractor) extractFile(ctx context.Context, n *walk.Node, c *counters) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	e := &n.Entry

	w, err := x.sink.Writer(n.Path, x.timestamps.time(e))
	if err != nil {
		return x.entryFailure(n, "create", err, c)
	}

	var hasher hash.Hash
	var dst io.Writer = w
	if x.digests {
		hasher = sha256.New()
		dst = io.MultiWriter(w, hasher)
	}

	bufp := x.bufs.Get().(*[]byte) //nolint:errcheck // pool only holds *[]byte
	written, err := copyRange(dst, x.src, e.StartOffset, uint64(e.DataLength), *bufp)
	x.bufs.Put(bufp)
	if err != nil {
		_ = w.Discard() //nolint:errcheck // best-effort cleanup
		var se *sourceError
		if errors.As(err, &se) {
			return fmt.Errorf("extract: %s: %w", n.Path, err)
		}
		return x.entryFailure(n, "write", err, c)
	}
	if err := w.Commit(); err != nil {
		return x.entryFailure(n, "commit", err, c)
	}

	c.files.Add(1)
	c.bytes.Add(written)

	ev := sfptype.ProgressEvent{
		Stage: sfptype.StageExtracted,
		Path:  x.display(n.Path),
		Bytes: written,
	}
	if hasher != nil {
		ev.Digest = digest.NewDigestFromEncoded(digest.SHA256, hex.EncodeToString(hasher.Sum(nil)))
	}
	x.log().Debug("extracted file", "path", n.Path, "bytes", written, "digest", ev.Digest.String())
	x.emit(ev)
	return nil
}

// entryFailure records a destination failure for one entry. Systemic
// failures are returned to stop the extraction; others are logged.
func (x *Extractor) entryFailure(n *walk.Node, op string, err error, c *counters) error {
	if platform.IsSystemic(err) {
		return fmt.Errorf("extract: %s: %s: %w", n.Path, op, err)
	}
	c.failed.Add(1)
	x.log().Warn("cannot extract entry", "path", n.Path, "op", op, "error", err)
	return nil
}

func (x *Extractor) emit(ev sfptype.ProgressEvent) {
	if x.progress != nil {
		x.progress(ev)
	}
}

func (x *Extractor) display(path string) string {
	return walk.Join(x.displayRoot, path)
}
