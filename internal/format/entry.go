package format

import (
	"encoding/binary"
	"fmt"
	"time"

	"github.com/meigma/sfpack/internal/sfptype"
)

// EntrySize is the encoded size of an Entry in bytes.
const EntrySize = 4 + 8 + 4 + 8 + 4 + 8 + 8 + 8 + 8 + 8 + 8 + 4

// Entry is one packed directory-entry record.
//
// For a directory, StartOffset is the offset of its first child and
// DataLength spans all direct children, one EntrySize apart. For a file,
// StartOffset and DataLength locate the content.
type Entry struct {
	Magic        uint32
	NameOffset   uint64
	Reserved1    uint32
	ParentOffset uint64
	IsDir        uint32
	FileLength   uint64
	ModifiedTime uint64
	CreatedTime  uint64
	Reserved2    uint64
	Reserved3    uint64
	StartOffset  uint64
	DataLength   uint32
}

// DecodeEntry decodes an entry from b.
// Returns ErrTruncated if b is shorter than EntrySize.
func DecodeEntry(b []byte) (Entry, error) {
	if len(b) < EntrySize {
		return Entry{}, fmt.Errorf("entry: %w (%d of %d bytes)", sfptype.ErrTruncated, len(b), EntrySize)
	}
	le := binary.LittleEndian
	return Entry{
		Magic:        le.Uint32(b[0:]),
		NameOffset:   le.Uint64(b[4:]),
		Reserved1:    le.Uint32(b[12:]),
		ParentOffset: le.Uint64(b[16:]),
		IsDir:        le.Uint32(b[24:]),
		FileLength:   le.Uint64(b[28:]),
		ModifiedTime: le.Uint64(b[36:]),
		CreatedTime:  le.Uint64(b[44:]),
		Reserved2:    le.Uint64(b[52:]),
		Reserved3:    le.Uint64(b[60:]),
		StartOffset:  le.Uint64(b[68:]),
		DataLength:   le.Uint32(b[76:]),
	}, nil
}

// AppendBinary appends the encoded entry to b.
func (e *Entry) AppendBinary(b []byte) ([]byte, error) {
	le := binary.LittleEndian
	b = le.AppendUint32(b, e.Magic)
	b = le.AppendUint64(b, e.NameOffset)
	b = le.AppendUint32(b, e.Reserved1)
	b = le.AppendUint64(b, e.ParentOffset)
	b = le.AppendUint32(b, e.IsDir)
	b = le.AppendUint64(b, e.FileLength)
	b = le.AppendUint64(b, e.ModifiedTime)
	b = le.AppendUint64(b, e.CreatedTime)
	b = le.AppendUint64(b, e.Reserved2)
	b = le.AppendUint64(b, e.Reserved3)
	b = le.AppendUint64(b, e.StartOffset)
	b = le.AppendUint32(b, e.DataLength)
	return b, nil
}

// Dir reports whether the entry is a directory.
func (e *Entry) Dir() bool {
	return e.IsDir != 0
}

// Created returns CreatedTime as a UTC time.
func (e *Entry) Created() time.Time {
	return unixTime(e.CreatedTime)
}

// Modified returns ModifiedTime as a UTC time.
func (e *Entry) Modified() time.Time {
	return unixTime(e.ModifiedTime)
}

// unixTime interprets v as seconds since the epoch. Values that do not fit
// an int64 are treated as the bit pattern of a negative timestamp.
func unixTime(v uint64) time.Time {
	return time.Unix(int64(v), 0).UTC() //nolint:gosec // two's complement reinterpretation is intended
}
