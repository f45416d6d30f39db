package sfpack

import "github.com/meigma/sfpack/internal/sfptype"

// Sentinel errors re-exported from internal/sfptype.
// Every format error wraps ErrCorrupt.
var (
	// ErrCorrupt is the parent of every format-level failure.
	ErrCorrupt = sfptype.ErrCorrupt

	// ErrTruncated is returned when a header, entry or content read is short.
	ErrTruncated = sfptype.ErrTruncated

	// ErrNameOutOfRange is returned when a name offset falls outside the name table.
	ErrNameOutOfRange = sfptype.ErrNameOutOfRange

	// ErrTooDeep is returned when directory nesting exceeds WithMaxDepth.
	ErrTooDeep = sfptype.ErrTooDeep

	// ErrSizeOverflow is returned when offset arithmetic overflows.
	ErrSizeOverflow = sfptype.ErrSizeOverflow

	// ErrSizeMismatch is returned in strict mode when a recorded size
	// disagrees with the archive.
	ErrSizeMismatch = sfptype.ErrSizeMismatch

	// ErrBadEntryKind is returned in strict mode when an entry is neither a
	// file nor a directory.
	ErrBadEntryKind = sfptype.ErrBadEntryKind
)
