package format

import (
	"encoding/binary"
	"fmt"
	"log/slog"

	"github.com/meigma/sfpack/internal/sfptype"
)

// HeaderSize is the encoded size of a Header in bytes.
const HeaderSize = 4 + 4 + 8 + 8 + 8 + 8 + 8 + 8 + 8

// Header is the fixed archive header stored at offset 0.
type Header struct {
	Magic              uint32
	Version            uint32
	Reserved1          uint64
	FirstDirOffset     uint64
	NameTableOffset    uint64
	DataOffset         uint64
	ArchiveSize        uint64
	PackageLabelOffset uint64
	Reserved2          uint64
}

// DecodeHeader decodes a header from b.
// Returns ErrTruncated if b is shorter than HeaderSize.
func DecodeHeader(b []byte) (Header, error) {
	if len(b) < HeaderSize {
		return Header{}, fmt.Errorf("header: %w (%d of %d bytes)", sfptype.ErrTruncated, len(b), HeaderSize)
	}
	le := binary.LittleEndian
	return Header{
		Magic:              le.Uint32(b[0:]),
		Version:            le.Uint32(b[4:]),
		Reserved1:          le.Uint64(b[8:]),
		FirstDirOffset:     le.Uint64(b[16:]),
		NameTableOffset:    le.Uint64(b[24:]),
		DataOffset:         le.Uint64(b[32:]),
		ArchiveSize:        le.Uint64(b[40:]),
		PackageLabelOffset: le.Uint64(b[48:]),
		Reserved2:          le.Uint64(b[56:]),
	}, nil
}

// AppendBinary appends the encoded header to b.
func (h *Header) AppendBinary(b []byte) ([]byte, error) {
	le := binary.LittleEndian
	b = le.AppendUint32(b, h.Magic)
	b = le.AppendUint32(b, h.Version)
	b = le.AppendUint64(b, h.Reserved1)
	b = le.AppendUint64(b, h.FirstDirOffset)
	b = le.AppendUint64(b, h.NameTableOffset)
	b = le.AppendUint64(b, h.DataOffset)
	b = le.AppendUint64(b, h.ArchiveSize)
	b = le.AppendUint64(b, h.PackageLabelOffset)
	b = le.AppendUint64(b, h.Reserved2)
	return b, nil
}

// NameTableSize returns the length of the name table.
// Returns ErrCorrupt if the table ends before it starts.
func (h *Header) NameTableSize() (uint64, error) {
	if h.DataOffset < h.NameTableOffset {
		return 0, fmt.Errorf("%w: name table ends at %d before it starts at %d",
			sfptype.ErrCorrupt, h.DataOffset, h.NameTableOffset)
	}
	return h.DataOffset - h.NameTableOffset, nil
}

// LogValue implements slog.LogValuer.
func (h Header) LogValue() slog.Value {
	return slog.GroupValue(
		slog.String("magic", fmt.Sprintf("%#08x", h.Magic)),
		slog.Uint64("version", uint64(h.Version)),
		slog.Uint64("first_dir", h.FirstDirOffset),
		slog.Uint64("name_table", h.NameTableOffset),
		slog.Uint64("data", h.DataOffset),
		slog.Uint64("size", h.ArchiveSize),
	)
}
