// Package testutil builds sfp archives and byte sources for tests.
package testutil

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"

	"github.com/meigma/sfpack/internal/format"
)

// Magic values written by the builder. Nothing validates them.
const (
	HeaderMagic = 0x50465321
	EntryMagic  = 0x45524944
)

// Node describes an entry to place in a test archive.
type Node struct {
	Name     string
	Dir      bool
	Content  []byte
	Created  uint64
	Modified uint64
	Children []*Node
}

// Dir returns a directory node.
func Dir(name string, children ...*Node) *Node {
	return &Node{Name: name, Dir: true, Children: children}
}

// File returns a file node with the given creation time.
func File(name string, content []byte, created uint64) *Node {
	return &Node{Name: name, Content: content, Created: created, Modified: created + 3600}
}

// Archive is an encoded test archive.
type Archive struct {
	Data   []byte
	Header format.Header

	// Offsets maps a slash-separated entry path to its entry offset.
	// The root entry is stored under its own name, usually "".
	Offsets map[string]uint64

	// ContentOffsets maps a file path to the offset of its content.
	ContentOffsets map[string]uint64
}

// BuildOption configures BuildArchive.
type BuildOption func(*buildConfig)

type buildConfig struct {
	label string
}

// WithLabel stores a package label in the name table.
func WithLabel(label string) BuildOption {
	return func(c *buildConfig) {
		c.label = label
	}
}

type placed struct {
	node   *Node
	path   string
	parent uint64
	offset uint64
}

// BuildArchive encodes root and its descendants.
//
// Layout: header, entry region, name table, file content. The root entry
// follows the header directly and every directory's children occupy one
// contiguous block of the entry region.
func BuildArchive(tb testing.TB, root *Node, opts ...BuildOption) *Archive {
	tb.Helper()

	var cfg buildConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	// Assign entry offsets breadth first so each child block is contiguous.
	next := uint64(format.HeaderSize)
	all := []*placed{{node: root, path: root.Name, parent: next, offset: next}}
	next += format.EntrySize
	for i := 0; i < len(all); i++ {
		p := all[i]
		for _, child := range p.node.Children {
			all = append(all, &placed{
				node:   child,
				path:   joinPath(p.path, child.Name),
				parent: p.offset,
				offset: next,
			})
			next += format.EntrySize
		}
	}

	nameTableOffset := next
	names := []byte{0}
	nameOffsets := make([]uint64, len(all))
	for i, p := range all {
		if p.node.Name == "" {
			continue
		}
		nameOffsets[i] = nameTableOffset + uint64(len(names))
		names = append(names, p.node.Name...)
		names = append(names, 0)
	}
	var labelOffset uint64
	if cfg.label != "" {
		labelOffset = nameTableOffset + uint64(len(names))
		names = append(names, cfg.label...)
		names = append(names, 0)
	}
	dataOffset := nameTableOffset + uint64(len(names))

	out := &Archive{
		Offsets:        make(map[string]uint64, len(all)),
		ContentOffsets: make(map[string]uint64),
	}

	entries := make([]format.Entry, len(all))
	content := dataOffset
	for i, p := range all {
		e := format.Entry{
			Magic:        EntryMagic,
			NameOffset:   nameOffsets[i],
			ParentOffset: p.parent,
			CreatedTime:  p.node.Created,
			ModifiedTime: p.node.Modified,
		}
		if p.node.Dir {
			e.IsDir = 1
			if len(p.node.Children) > 0 {
				first := all[indexOfChild(all, p)]
				e.StartOffset = first.offset
			} else {
				e.StartOffset = p.offset + format.EntrySize
			}
			e.DataLength = uint32(len(p.node.Children) * format.EntrySize) //nolint:gosec // test sizes are small
		} else {
			e.StartOffset = content
			e.DataLength = uint32(len(p.node.Content)) //nolint:gosec // test sizes are small
			e.FileLength = uint64(len(p.node.Content))
			out.ContentOffsets[p.path] = content
			content += uint64(len(p.node.Content))
		}
		entries[i] = e
		out.Offsets[p.path] = p.offset
	}

	out.Header = format.Header{
		Magic:              HeaderMagic,
		Version:            1,
		FirstDirOffset:     uint64(format.HeaderSize),
		NameTableOffset:    nameTableOffset,
		DataOffset:         dataOffset,
		ArchiveSize:        content,
		PackageLabelOffset: labelOffset,
	}

	data, err := out.Header.AppendBinary(make([]byte, 0, content))
	if err != nil {
		tb.Fatalf("encode header: %v", err)
	}
	for i := range entries {
		data, err = entries[i].AppendBinary(data)
		if err != nil {
			tb.Fatalf("encode entry: %v", err)
		}
	}
	data = append(data, names...)
	for _, p := range all {
		if !p.node.Dir {
			data = append(data, p.node.Content...)
		}
	}
	out.Data = data
	return out
}

// PutUint32 overwrites a little-endian uint32 at off.
func (a *Archive) PutUint32(off uint64, v uint32) {
	binary.LittleEndian.PutUint32(a.Data[off:], v)
}

// PutUint64 overwrites a little-endian uint64 at off.
func (a *Archive) PutUint64(off uint64, v uint64) {
	binary.LittleEndian.PutUint64(a.Data[off:], v)
}

// WriteFile writes the archive to dir/name and returns the path.
func (a *Archive) WriteFile(tb testing.TB, dir, name string) string {
	tb.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, a.Data, 0o600); err != nil {
		tb.Fatalf("write archive: %v", err)
	}
	return path
}

// indexOfChild returns the index in all of the first child of p.
func indexOfChild(all []*placed, p *placed) int {
	first := p.node.Children[0]
	for i, q := range all {
		if q.node == first && q.parent == p.offset {
			return i
		}
	}
	return -1
}

func joinPath(parent, name string) string {
	if parent == "" {
		return name
	}
	return parent + "/" + name
}
