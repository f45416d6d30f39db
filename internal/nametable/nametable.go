// Package nametable resolves entry names against an archive's name table.
package nametable

import (
	"bytes"
	"fmt"

	"github.com/meigma/sfpack/internal/sfptype"
)

// Table is an immutable in-memory copy of the name table.
//
// Names are NUL-terminated and addressed by absolute archive offset.
// A Table is safe for concurrent use.
type Table struct {
	data []byte
	base uint64
}

// New returns a Table over data, which was read from the archive at offset base.
// The table retains data; callers must not modify it afterwards.
func New(data []byte, base uint64) *Table {
	return &Table{data: data, base: base}
}

// Len returns the size of the table in bytes.
func (t *Table) Len() int {
	return len(t.data)
}

// Contains reports whether off addresses a byte inside the table.
func (t *Table) Contains(off uint64) bool {
	return off >= t.base && off-t.base < uint64(len(t.data))
}

// Resolve returns the name stored at the absolute offset off.
//
// Offset 0 is the "no name" sentinel and resolves to "". A name without a
// terminating NUL runs to the end of the table. Offsets outside the table
// return ErrNameOutOfRange.
func (t *Table) Resolve(off uint64) (string, error) {
	b, err := t.Bytes(off)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Bytes is like Resolve but returns a slice aliasing the table.
// The returned slice must be treated as immutable.
func (t *Table) Bytes(off uint64) ([]byte, error) {
	if off == 0 {
		return nil, nil
	}
	if !t.Contains(off) {
		return nil, fmt.Errorf("%w: offset %d not in [%d, %d)",
			sfptype.ErrNameOutOfRange, off, t.base, t.base+uint64(len(t.data)))
	}
	name := t.data[off-t.base:]
	if i := bytes.IndexByte(name, 0); i >= 0 {
		name = name[:i]
	}
	return name, nil
}
