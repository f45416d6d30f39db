package sfptype

import "errors"

// ErrCorrupt is the parent of every format-level failure.
var ErrCorrupt = errors.New("sfpack: corrupt archive")

// Format errors. Each wraps ErrCorrupt so callers can match either.
var (
	// ErrTruncated is returned when a header, entry or content read is short.
	ErrTruncated = corrupt("truncated read")

	// ErrNameOutOfRange is returned when a name offset falls outside the name table.
	ErrNameOutOfRange = corrupt("name offset out of range")

	// ErrTooDeep is returned when directory nesting exceeds the configured limit.
	ErrTooDeep = corrupt("directory nesting too deep")

	// ErrSizeOverflow is returned when offset arithmetic overflows.
	ErrSizeOverflow = corrupt("size overflow")

	// ErrSizeMismatch is returned in strict mode when a recorded size disagrees
	// with the archive.
	ErrSizeMismatch = corrupt("size mismatch")

	// ErrBadEntryKind is returned in strict mode when an entry is neither a
	// file nor a directory.
	ErrBadEntryKind = corrupt("invalid entry kind")
)

type corruptError struct {
	msg string
}

func corrupt(msg string) error {
	return &corruptError{msg: msg}
}

func (e *corruptError) Error() string {
	return "sfpack: " + e.msg
}

func (e *corruptError) Unwrap() error {
	return ErrCorrupt
}
