package extract

import "sync/atomic"

// Stats summarizes an extraction.
type Stats struct {
	// Dirs is the number of directories created or found in place.
	Dirs int

	// Files is the number of files written.
	Files int

	// Skipped is the number of files left untouched because they existed
	// and overwrite was disabled.
	Skipped int

	// Failed is the number of entries that could not be materialized.
	Failed int

	// Bytes is the total number of content bytes written.
	Bytes uint64
}

// counters accumulates Stats from concurrent workers.
type counters struct {
	dirs    atomic.Int64
	files   atomic.Int64
	skipped atomic.Int64
	failed  atomic.Int64
	bytes   atomic.Uint64
}

func (c *counters) snapshot() Stats {
	return Stats{
		Dirs:    int(c.dirs.Load()),
		Files:   int(c.files.Load()),
		Skipped: int(c.skipped.Load()),
		Failed:  int(c.failed.Load()),
		Bytes:   c.bytes.Load(),
	}
}
