package sfpack

import (
	"fmt"
	"io"
	"os"

	"golang.org/x/exp/mmap"
)

// ByteSource provides random access to an archive.
//
// *bytes.Reader and *io.SectionReader satisfy it directly. ReadAt must be
// safe for concurrent use when extracting with more than one worker.
type ByteSource interface {
	io.ReaderAt
	Size() int64
}

// fileSource serves an archive from an open file with positional reads.
type fileSource struct {
	*os.File
	size int64
}

func openFileSource(path string) (*fileSource, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	info, err := f.Stat()
	if err != nil {
		_ = f.Close() //nolint:errcheck // best-effort cleanup
		return nil, err
	}
	if info.IsDir() {
		_ = f.Close() //nolint:errcheck // best-effort cleanup
		return nil, fmt.Errorf("%s: is a directory", path)
	}
	return &fileSource{File: f, size: info.Size()}, nil
}

// Size returns the file size at open time.
func (s *fileSource) Size() int64 {
	return s.size
}

// mmapSource serves an archive from a read-only memory mapping.
type mmapSource struct {
	*mmap.ReaderAt
}

func openMmapSource(path string) (*mmapSource, error) {
	r, err := mmap.Open(path)
	if err != nil {
		return nil, err
	}
	return &mmapSource{ReaderAt: r}, nil
}

// Size returns the length of the mapping.
func (s *mmapSource) Size() int64 {
	return int64(s.Len())
}
