package sfpack

import (
	"github.com/meigma/sfpack/internal/extract"
	"github.com/meigma/sfpack/internal/format"
	"github.com/meigma/sfpack/internal/walk"
)

// --- Re-exports from internal packages ---

// Header is the fixed archive header.
type Header = format.Header

// Record is a decoded directory-entry record.
type Record = format.Entry

// Entry is a visited archive entry: its decoded record plus its resolved
// name and slash-separated path.
type Entry = walk.Node

// Stats summarizes an extraction.
type Stats = extract.Stats

// TimestampSource selects which entry time is applied to extracted files.
type TimestampSource = extract.TimestampSource

// Timestamp sources.
const (
	// TimestampCreated applies the creation time as both access and
	// modification time. This is the default.
	TimestampCreated = extract.TimestampCreated

	// TimestampModified applies the modification time instead.
	TimestampModified = extract.TimestampModified
)

// Record sizes in bytes.
const (
	HeaderSize = format.HeaderSize
	EntrySize  = format.EntrySize
)

// DefaultMaxDepth is the default limit on directory nesting.
const DefaultMaxDepth = walk.DefaultMaxDepth

// DefaultBufferSize is the default copy buffer size.
const DefaultBufferSize = extract.DefaultBufferSize
