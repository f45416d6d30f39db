package extract

import (
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"
)

// Permission bits for created entries, before umask.
const (
	DirPerm  fs.FileMode = 0o775
	FilePerm fs.FileMode = 0o644
)

// FileSink writes entries below a destination directory.
//
// All paths are resolved through an os.Root, so names that would escape
// the destination are rejected. By default files are written to a
// temporary file in the same directory and renamed into place on Commit,
// so partially written files are never visible at the final path.
type FileSink struct {
	destDir       string
	root          *os.Root
	overwrite     bool
	preserveTimes bool
	directWrite   bool
}

// FileSinkOption configures a FileSink.
type FileSinkOption func(*FileSink)

// WithOverwrite controls whether existing files are replaced.
// By default, existing files are overwritten.
func WithOverwrite(overwrite bool) FileSinkOption {
	return func(s *FileSink) {
		s.overwrite = overwrite
	}
}

// WithPreserveTimes controls whether entry timestamps are applied.
// By default, times are applied.
func WithPreserveTimes(preserve bool) FileSinkOption {
	return func(s *FileSink) {
		s.preserveTimes = preserve
	}
}

// WithDirectWrites disables temp files and writes directly to the final path.
func WithDirectWrites(enabled bool) FileSinkOption {
	return func(s *FileSink) {
		s.directWrite = enabled
	}
}

// NewFileSink creates destDir if needed and returns a FileSink rooted there.
// The caller must Close the sink.
func NewFileSink(destDir string, opts ...FileSinkOption) (*FileSink, error) {
	s := &FileSink{
		destDir:       destDir,
		overwrite:     true,
		preserveTimes: true,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := os.MkdirAll(destDir, DirPerm); err != nil {
		return nil, fmt.Errorf("create destination %s: %w", destDir, err)
	}
	root, err := os.OpenRoot(destDir)
	if err != nil {
		return nil, fmt.Errorf("open destination root %s: %w", destDir, err)
	}
	s.root = root
	return s, nil
}

// Close releases the destination root.
func (s *FileSink) Close() error {
	return s.root.Close()
}

// Mkdir creates the directory at path.
func (s *FileSink) Mkdir(path string) error {
	if path == "" {
		return nil
	}
	if !fs.ValidPath(path) {
		return &fs.PathError{Op: "mkdir", Path: path, Err: fs.ErrInvalid}
	}
	rel := filepath.FromSlash(path)
	err := s.root.Mkdir(rel, DirPerm)
	if err == nil || !errors.Is(err, fs.ErrExist) {
		return err
	}
	info, statErr := s.root.Stat(rel)
	if statErr == nil && info.IsDir() {
		return nil
	}
	return err
}

// ShouldProcess returns false if the file already exists and overwrite is disabled.
func (s *FileSink) ShouldProcess(path string) bool {
	if s.overwrite {
		return true
	}
	if !fs.ValidPath(path) {
		return true // let Writer report the invalid path
	}
	_, err := s.root.Lstat(filepath.FromSlash(path))
	return errors.Is(err, fs.ErrNotExist)
}

// Writer returns a Committer for the file at path.
func (s *FileSink) Writer(path string, stamp time.Time) (Committer, error) {
	if path == "" || !fs.ValidPath(path) {
		return nil, &fs.PathError{Op: "create", Path: path, Err: fs.ErrInvalid}
	}
	rel := filepath.FromSlash(path)

	if s.directWrite {
		file, err := s.root.OpenFile(rel, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, FilePerm)
		if err != nil {
			return nil, err
		}
		return &directCommitter{
			destRel: rel,
			file:    file,
			stamp:   stamp,
			sink:    s,
		}, nil
	}

	tempFile, tempRel, err := createTempFile(s.root, filepath.Dir(rel), ".sfpack-")
	if err != nil {
		return nil, fmt.Errorf("create temp file: %w", err)
	}
	return &fileCommitter{
		destRel:  rel,
		tempFile: tempFile,
		tempRel:  tempRel,
		stamp:    stamp,
		sink:     s,
	}, nil
}

// fileCommitter writes to a temp file and renames on Commit.
type fileCommitter struct {
	destRel  string
	tempFile *os.File
	tempRel  string
	stamp    time.Time
	sink     *FileSink
}

// Write implements io.Writer.
func (c *fileCommitter) Write(p []byte) (int, error) {
	return c.tempFile.Write(p)
}

// Commit closes the temp file, applies metadata, and renames to final path.
func (c *fileCommitter) Commit() error {
	root := c.sink.root
	if err := c.tempFile.Close(); err != nil {
		_ = root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close temp file: %w", err)
	}

	// Temp files are created private; widen to the regular file mode.
	if err := root.Chmod(c.tempRel, FilePerm); err != nil {
		_ = root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("chmod: %w", err)
	}

	if c.sink.preserveTimes {
		if err := root.Chtimes(c.tempRel, c.stamp, c.stamp); err != nil {
			_ = root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
			return fmt.Errorf("chtimes: %w", err)
		}
	}

	if err := root.Rename(c.tempRel, c.destRel); err != nil {
		_ = root.Remove(c.tempRel) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("rename to %s: %w", c.destRel, err)
	}
	return nil
}

// Discard closes and removes the temp file.
func (c *fileCommitter) Discard() error {
	_ = c.tempFile.Close() //nolint:errcheck // we're cleaning up
	return c.sink.root.Remove(c.tempRel)
}

// directCommitter writes directly to the final path.
type directCommitter struct {
	destRel string
	file    *os.File
	stamp   time.Time
	sink    *FileSink
}

// Write implements io.Writer.
func (c *directCommitter) Write(p []byte) (int, error) {
	return c.file.Write(p)
}

// Commit closes the file and applies metadata.
func (c *directCommitter) Commit() error {
	root := c.sink.root
	if err := c.file.Close(); err != nil {
		_ = root.Remove(c.destRel) //nolint:errcheck // best-effort cleanup
		return fmt.Errorf("close file: %w", err)
	}
	if c.sink.preserveTimes {
		if err := root.Chtimes(c.destRel, c.stamp, c.stamp); err != nil {
			_ = root.Remove(c.destRel) //nolint:errcheck // best-effort cleanup
			return fmt.Errorf("chtimes: %w", err)
		}
	}
	return nil
}

// Discard closes and removes the file.
func (c *directCommitter) Discard() error {
	_ = c.file.Close() //nolint:errcheck // best-effort cleanup
	return c.sink.root.Remove(c.destRel)
}

func createTempFile(root *os.Root, dir, prefix string) (*os.File, string, error) {
	const attempts = 10
	for range attempts {
		name, err := randomSuffix()
		if err != nil {
			return nil, "", err
		}
		relPath := filepath.Join(dir, prefix+name)
		f, err := root.OpenFile(relPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if err == nil {
			return f, relPath, nil
		}
		if !errors.Is(err, os.ErrExist) {
			return nil, "", err
		}
	}
	return nil, "", errors.New("create temp file: exhausted retries")
}

func randomSuffix() (string, error) {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		return "", err
	}
	return hex.EncodeToString(b[:]), nil
}
