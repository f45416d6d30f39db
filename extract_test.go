package sfpack

import (
	"bytes"
	"context"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/opencontainers/go-digest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/sfpack/internal/testutil"
)

// extractedFiles returns the regular files under root keyed by
// slash-separated relative path.
func extractedFiles(t *testing.T, root string) map[string][]byte {
	t.Helper()
	files := make(map[string][]byte)
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		files[filepath.ToSlash(rel)] = data
		return nil
	})
	require.NoError(t, err)
	return files
}

func TestExtractEmptyNamedRoot(t *testing.T) {
	t.Parallel()

	a := testutil.BuildArchive(t, testutil.Dir("root"))
	// Entry right after the header, name table holding "\x00root\x00".
	require.Equal(t, uint64(HeaderSize), a.Header.FirstDirOffset)
	require.Equal(t, uint64(HeaderSize+EntrySize), a.Header.NameTableOffset)
	require.Equal(t, []byte("\x00root\x00"), a.Data[a.Header.NameTableOffset:a.Header.DataOffset])

	arc, err := New(bytes.NewReader(a.Data))
	require.NoError(t, err)

	dest := t.TempDir()
	stats, err := arc.ExtractTo(context.Background(), dest)
	require.NoError(t, err)
	assert.Equal(t, Stats{Dirs: 1}, stats)

	info, err := os.Stat(filepath.Join(dest, "root"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())

	entries, err := os.ReadDir(filepath.Join(dest, "root"))
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestExtractReproducesTree(t *testing.T) {
	t.Parallel()

	root := testutil.Dir("",
		testutil.File("readme", []byte("hello"), createdA),
		testutil.Dir("data",
			testutil.Dir("levels",
				testutil.File("1.map", patterned(4096), createdB),
				testutil.File("2.map", patterned(4097), createdB),
			),
			testutil.File("zero", nil, createdA),
		),
		testutil.Dir("empty"),
	)
	a := testutil.BuildArchive(t, root)

	for _, workers := range []int{-1, 0, 3} {
		arc, err := New(bytes.NewReader(a.Data))
		require.NoError(t, err)

		dest := t.TempDir()
		stats, err := arc.ExtractTo(context.Background(), dest, ExtractWithWorkers(workers))
		require.NoError(t, err, "workers=%d", workers)
		assert.Equal(t, 4, stats.Dirs)
		assert.Equal(t, 4, stats.Files)
		assert.Zero(t, stats.Failed)

		// Every reachable file entry becomes a file holding exactly its
		// content range, and nothing else is created.
		want := make(map[string][]byte)
		require.NoError(t, arc.Walk(context.Background(), func(e *Entry) error {
			if !e.Entry.Dir() {
				off := e.Entry.StartOffset
				want[e.Path] = a.Data[off : off+uint64(e.Entry.DataLength)]
			}
			return nil
		}))
		got := extractedFiles(t, dest)
		require.Len(t, got, len(want))
		for path, data := range want {
			assert.True(t, bytes.Equal(data, got[path]), "content of %s", path)
		}

		info, err := os.Stat(filepath.Join(dest, "empty"))
		require.NoError(t, err)
		assert.True(t, info.IsDir())

		info, err = os.Stat(filepath.Join(dest, "data", "levels", "2.map"))
		require.NoError(t, err)
		assert.True(t, info.ModTime().Equal(time.Unix(createdB, 0)))
	}
}

func TestExtractTimestampSource(t *testing.T) {
	t.Parallel()

	a := testutil.BuildArchive(t, sampleTree())
	arc, err := New(bytes.NewReader(a.Data))
	require.NoError(t, err)

	dest := t.TempDir()
	_, err = arc.ExtractTo(context.Background(), dest, ExtractWithTimestampSource(TimestampModified))
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dest, "docs", "a.txt"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().Equal(time.Unix(createdA+3600, 0)))
}

func TestExtractOverwrite(t *testing.T) {
	t.Parallel()

	a := testutil.BuildArchive(t, sampleTree())
	arc, err := New(bytes.NewReader(a.Data))
	require.NoError(t, err)

	dest := t.TempDir()
	target := filepath.Join(dest, "top.txt")
	require.NoError(t, os.WriteFile(target, []byte("stale content that is longer"), 0o644))

	stats, err := arc.ExtractTo(context.Background(), dest, ExtractWithOverwrite(false))
	require.NoError(t, err)
	assert.Equal(t, 1, stats.Skipped)
	got, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "stale content that is longer", string(got))

	stats, err = arc.ExtractTo(context.Background(), dest, ExtractWithDirectWrites(true))
	require.NoError(t, err)
	assert.Zero(t, stats.Skipped)
	got, err = os.ReadFile(target)
	require.NoError(t, err)
	assert.Equal(t, "top level", string(got))
}

func TestExtractProgress(t *testing.T) {
	t.Parallel()

	a := testutil.BuildArchive(t, sampleTree())
	arc, err := New(bytes.NewReader(a.Data))
	require.NoError(t, err)

	var mu sync.Mutex
	var visited []string
	digests := make(map[string]digest.Digest)
	dest := filepath.Join(t.TempDir(), "out")
	_, err = arc.ExtractTo(context.Background(), dest,
		ExtractWithWorkers(2),
		ExtractWithBufferSize(100),
		ExtractWithDigests(true),
		ExtractWithProgress(func(ev ProgressEvent) {
			mu.Lock()
			defer mu.Unlock()
			switch ev.Stage {
			case StageVisiting:
				visited = append(visited, ev.Path)
			case StageExtracted:
				digests[ev.Path] = ev.Digest
			}
		}),
	)
	require.NoError(t, err)

	prefix := filepath.ToSlash(dest)
	assert.Equal(t, []string{
		prefix,
		prefix + "/docs",
		prefix + "/docs/a.txt",
		prefix + "/docs/big.bin",
		prefix + "/top.txt",
	}, visited)
	assert.Equal(t, digest.FromBytes(patterned(5000)), digests[prefix+"/docs/big.bin"])
	assert.Equal(t, digest.FromString("alpha"), digests[prefix+"/docs/a.txt"])
}

func TestExtractFormatErrorStops(t *testing.T) {
	t.Parallel()

	a := testutil.BuildArchive(t, sampleTree())
	// Point docs/a.txt's name past the end of the name table.
	a.PutUint64(a.Offsets["docs/a.txt"]+4, a.Header.DataOffset+100)

	arc, err := New(bytes.NewReader(a.Data))
	require.NoError(t, err)

	_, err = arc.ExtractTo(context.Background(), t.TempDir())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNameOutOfRange)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestExtractCanceled(t *testing.T) {
	t.Parallel()

	a := testutil.BuildArchive(t, sampleTree())
	arc, err := New(bytes.NewReader(a.Data))
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = arc.ExtractTo(ctx, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
}

func TestExtractNextToArchive(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	a := testutil.BuildArchive(t, sampleTree())
	path := a.WriteFile(t, dir, "assets.sfp")

	arc, err := Open(path)
	require.NoError(t, err)
	t.Cleanup(func() { _ = arc.Close() })

	stats, err := arc.Extract(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Files)

	got, err := os.ReadFile(filepath.Join(dir, "assets", "top.txt"))
	require.NoError(t, err)
	assert.Equal(t, "top level", string(got))
}

func TestExtractWithoutPath(t *testing.T) {
	t.Parallel()

	a := testutil.BuildArchive(t, sampleTree())
	arc, err := New(bytes.NewReader(a.Data))
	require.NoError(t, err)

	_, err = arc.Extract(context.Background())
	assert.ErrorIs(t, err, errNoPath)
}

func TestOutputDir(t *testing.T) {
	t.Parallel()

	tests := []struct {
		path string
		want string
	}{
		{path: "foo.sfp", want: "foo"},
		{path: "foo.pack", want: "foo"},
		{path: filepath.Join("data", "foo.sfp"), want: filepath.Join("data", "foo")},
		{path: "archive.tar.sfp", want: "archive.tar"},
		{path: "noext", want: "noext.d"},
		{path: ".sfp", want: ".sfp.d"},
		{path: filepath.Join("data", ".hidden"), want: filepath.Join("data", ".hidden.d")},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, OutputDir(tt.path))
		})
	}
}

func TestExtractWithoutPreservingTimes(t *testing.T) {
	t.Parallel()

	a := testutil.BuildArchive(t, sampleTree())
	arc, err := New(bytes.NewReader(a.Data))
	require.NoError(t, err)

	dest := t.TempDir()
	before := time.Now().Add(-time.Minute)
	_, err = arc.ExtractTo(context.Background(), dest, ExtractWithPreserveTimes(false))
	require.NoError(t, err)

	info, err := os.Stat(filepath.Join(dest, "docs", "a.txt"))
	require.NoError(t, err)
	assert.True(t, info.ModTime().After(before), "mtime %v", info.ModTime())
}
