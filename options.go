package sfpack

import "log/slog"

// Option configures an Archive.
type Option func(*Archive)

// WithLogger sets the logger for archive diagnostics.
// By default nothing is logged.
func WithLogger(logger *slog.Logger) Option {
	return func(a *Archive) {
		a.logger = logger
	}
}

// WithStrict enables structural validation.
//
// A strict archive must record its own size in the header, and every
// visited entry must have a valid kind, a name (except the root) and a
// child span or content range that fits the archive.
func WithStrict(strict bool) Option {
	return func(a *Archive) {
		a.strict = strict
	}
}

// WithMemoryMap makes Open map the archive into memory instead of reading
// it through the file descriptor. It has no effect on New.
func WithMemoryMap(enabled bool) Option {
	return func(a *Archive) {
		a.mmap = enabled
	}
}

// WithMaxDepth limits directory nesting. Values < 1 restore DefaultMaxDepth.
func WithMaxDepth(n int) Option {
	return func(a *Archive) {
		a.maxDepth = n
	}
}

// ExtractOption configures ExtractTo and Extract.
type ExtractOption func(*extractConfig)

type extractConfig struct {
	overwrite    bool
	directWrites bool
	noTimes      bool
	workers      int
	bufferSize   int
	timestamps   TimestampSource
	digests      bool
	progress     ProgressFunc
}

func defaultExtractConfig() extractConfig {
	return extractConfig{
		overwrite:  true,
		bufferSize: DefaultBufferSize,
	}
}

// ExtractWithOverwrite controls whether existing files are replaced.
// By default they are; when disabled, existing files are skipped and
// counted in Stats.Skipped.
func ExtractWithOverwrite(overwrite bool) ExtractOption {
	return func(c *extractConfig) {
		c.overwrite = overwrite
	}
}

// ExtractWithDirectWrites writes files in place instead of through a
// temporary file and rename. An interrupted extraction may then leave
// partial files behind.
func ExtractWithDirectWrites(enabled bool) ExtractOption {
	return func(c *extractConfig) {
		c.directWrites = enabled
	}
}

// ExtractWithPreserveTimes controls whether entry timestamps are applied to
// extracted files. By default they are; when disabled, files keep the time
// they were written.
func ExtractWithPreserveTimes(preserve bool) ExtractOption {
	return func(c *extractConfig) {
		c.noTimes = !preserve
	}
}

// ExtractWithWorkers sets the number of concurrent file copies.
// Values < 0 force serial processing. Zero uses GOMAXPROCS.
// Values > 0 force a specific worker count.
//
// Entries are always visited, and progress visiting events reported, in
// archive order regardless of the worker count.
func ExtractWithWorkers(n int) ExtractOption {
	return func(c *extractConfig) {
		c.workers = n
	}
}

// ExtractWithBufferSize sets the copy buffer size per worker.
// Values < 1 restore DefaultBufferSize.
func ExtractWithBufferSize(n int) ExtractOption {
	return func(c *extractConfig) {
		c.bufferSize = n
	}
}

// ExtractWithTimestampSource selects the entry time applied to files.
// The default is TimestampCreated.
func ExtractWithTimestampSource(s TimestampSource) ExtractOption {
	return func(c *extractConfig) {
		c.timestamps = s
	}
}

// ExtractWithDigests computes a SHA-256 digest of every extracted file and
// reports it in StageExtracted progress events.
func ExtractWithDigests(enabled bool) ExtractOption {
	return func(c *extractConfig) {
		c.digests = enabled
	}
}

// ExtractWithProgress sets a callback for progress events.
func ExtractWithProgress(fn ProgressFunc) ExtractOption {
	return func(c *extractConfig) {
		c.progress = fn
	}
}
