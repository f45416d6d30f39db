package sfptype

import "github.com/opencontainers/go-digest"

// ProgressEvent represents a progress update during extraction.
type ProgressEvent struct {
	// Stage identifies the current phase.
	Stage ProgressStage

	// Path is the destination path of the entry, slash separated.
	Path string

	// Dir reports whether the entry is a directory.
	Dir bool

	// Bytes is the number of content bytes written for the entry.
	// Only set for StageExtracted.
	Bytes uint64

	// Digest is the content digest of the extracted file.
	// Only set for StageExtracted when digests are enabled.
	Digest digest.Digest
}

// ProgressStage identifies the current phase of an extraction.
type ProgressStage uint8

const (
	// StageVisiting is emitted once per entry, in walk order, before the
	// entry is materialized.
	StageVisiting ProgressStage = iota

	// StageExtracted is emitted after a file has been written and its
	// timestamps restored.
	StageExtracted
)

// String returns the string representation of the stage.
func (s ProgressStage) String() string {
	switch s {
	case StageVisiting:
		return "visiting"
	case StageExtracted:
		return "extracted"
	default:
		return "unknown"
	}
}

// ProgressFunc receives progress updates during extraction.
// StageVisiting events are delivered sequentially in walk order.
// StageExtracted events may arrive from worker goroutines, so
// implementations must be safe for concurrent calls.
type ProgressFunc func(ProgressEvent)
