package extract

import (
	"io"
	"time"
)

// Sink materializes visited entries.
//
// Paths are slash separated and relative to the sink's root; "" is the
// root itself.
type Sink interface {
	// Mkdir creates the directory at path. An existing directory is not an error.
	Mkdir(path string) error

	// ShouldProcess returns false if the file at path should be skipped.
	ShouldProcess(path string) bool

	// Writer returns a writer for the file at path.
	// stamp is applied as both access and modification time on Commit.
	// The returned Committer must have Commit() called after a successful
	// copy, or Discard() called on any error.
	Writer(path string, stamp time.Time) (Committer, error)
}

// Committer is a writer that can be committed or discarded.
type Committer interface {
	io.Writer

	// Commit finalizes the write and applies metadata.
	Commit() error

	// Discard aborts the write and cleans up any temporary resources.
	Discard() error
}
