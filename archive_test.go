package sfpack

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/sfpack/internal/testutil"
)

const (
	createdA = 1_400_000_000
	createdB = 1_500_000_000
)

func patterned(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i % 251)
	}
	return b
}

func sampleTree() *testutil.Node {
	return testutil.Dir("",
		testutil.Dir("docs",
			testutil.File("a.txt", []byte("alpha"), createdA),
			testutil.File("big.bin", patterned(5000), createdB),
		),
		testutil.File("top.txt", []byte("top level"), createdA),
	)
}

func TestOpenMissingFile(t *testing.T) {
	t.Parallel()

	_, err := Open(filepath.Join(t.TempDir(), "missing.sfp"))
	require.Error(t, err)
	assert.ErrorIs(t, err, fs.ErrNotExist)

	var pathErr *fs.PathError
	assert.ErrorAs(t, err, &pathErr)
}

func TestOpenDirectory(t *testing.T) {
	t.Parallel()

	_, err := Open(t.TempDir())
	require.Error(t, err)
}

func TestOpenTruncatedHeader(t *testing.T) {
	t.Parallel()

	a := testutil.BuildArchive(t, sampleTree())
	path := filepath.Join(t.TempDir(), "short.sfp")
	require.NoError(t, os.WriteFile(path, a.Data[:HeaderSize-1], 0o600))

	_, err := Open(path)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTruncated)
	assert.ErrorIs(t, err, ErrCorrupt)
}

func TestNewNameTable(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		mutate  func(a *testutil.Archive)
		wantErr error
	}{
		{
			name: "ends before start",
			mutate: func(a *testutil.Archive) {
				a.PutUint64(32, a.Header.NameTableOffset-1)
			},
			wantErr: ErrCorrupt,
		},
		{
			name: "past end of archive",
			mutate: func(a *testutil.Archive) {
				a.PutUint64(32, uint64(len(a.Data))+1)
			},
			wantErr: ErrTruncated,
		},
		{
			name: "offset overflows",
			mutate: func(a *testutil.Archive) {
				a.PutUint64(24, ^uint64(0)-1)
				a.PutUint64(32, ^uint64(0))
			},
			wantErr: ErrTruncated,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			a := testutil.BuildArchive(t, sampleTree())
			tt.mutate(a)
			_, err := New(bytes.NewReader(a.Data))
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestNewEmptyNameTable(t *testing.T) {
	t.Parallel()

	a := testutil.BuildArchive(t, testutil.Dir(""))
	a.PutUint64(32, a.Header.NameTableOffset)

	arc, err := New(bytes.NewReader(a.Data))
	require.NoError(t, err)

	var paths []string
	require.NoError(t, arc.Walk(context.Background(), func(e *Entry) error {
		paths = append(paths, e.Path)
		return nil
	}))
	assert.Equal(t, []string{""}, paths)
}

func TestStrictArchiveSize(t *testing.T) {
	t.Parallel()

	a := testutil.BuildArchive(t, sampleTree())

	_, err := New(bytes.NewReader(a.Data), WithStrict(true))
	require.NoError(t, err)

	padded := append(bytes.Clone(a.Data), 0, 0, 0)
	_, err = New(bytes.NewReader(padded), WithStrict(true))
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSizeMismatch)

	_, err = New(bytes.NewReader(padded))
	require.NoError(t, err, "size is only checked in strict mode")
}

func TestStrictRejectsBadEntryKind(t *testing.T) {
	t.Parallel()

	a := testutil.BuildArchive(t, sampleTree())
	a.PutUint32(a.Offsets["top.txt"]+24, 7)

	arc, err := New(bytes.NewReader(a.Data), WithStrict(true))
	require.NoError(t, err)

	err = arc.Walk(context.Background(), func(*Entry) error { return nil })
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrBadEntryKind)
}

func TestHeaderAccessor(t *testing.T) {
	t.Parallel()

	a := testutil.BuildArchive(t, sampleTree())
	arc, err := New(bytes.NewReader(a.Data))
	require.NoError(t, err)

	h := arc.Header()
	assert.Equal(t, a.Header, h)
	assert.Equal(t, uint64(HeaderSize), h.FirstDirOffset)
	assert.Empty(t, arc.Path())
}

func TestLabel(t *testing.T) {
	t.Parallel()

	t.Run("none", func(t *testing.T) {
		t.Parallel()
		a := testutil.BuildArchive(t, sampleTree())
		arc, err := New(bytes.NewReader(a.Data))
		require.NoError(t, err)

		label, err := arc.Label()
		require.NoError(t, err)
		assert.Empty(t, label)
	})

	t.Run("in name table", func(t *testing.T) {
		t.Parallel()
		a := testutil.BuildArchive(t, sampleTree(), testutil.WithLabel("Game Data 1.0"))
		arc, err := New(bytes.NewReader(a.Data))
		require.NoError(t, err)

		label, err := arc.Label()
		require.NoError(t, err)
		assert.Equal(t, "Game Data 1.0", label)
	})

	t.Run("outside name table", func(t *testing.T) {
		t.Parallel()
		root := testutil.Dir("", testutil.File("label", []byte("Patch 7\x00trailing"), createdA))
		a := testutil.BuildArchive(t, root)
		a.PutUint64(48, a.ContentOffsets["label"])
		arc, err := New(bytes.NewReader(a.Data))
		require.NoError(t, err)

		label, err := arc.Label()
		require.NoError(t, err)
		assert.Equal(t, "Patch 7", label)
	})

	t.Run("past end", func(t *testing.T) {
		t.Parallel()
		a := testutil.BuildArchive(t, sampleTree())
		a.PutUint64(48, uint64(len(a.Data))+10)
		arc, err := New(bytes.NewReader(a.Data))
		require.NoError(t, err)

		_, err = arc.Label()
		assert.ErrorIs(t, err, ErrNameOutOfRange)
	})
}

func TestWalkListsEntries(t *testing.T) {
	t.Parallel()

	a := testutil.BuildArchive(t, sampleTree())
	arc, err := New(bytes.NewReader(a.Data))
	require.NoError(t, err)

	var paths []string
	var dirs []bool
	err = arc.Walk(context.Background(), func(e *Entry) error {
		paths = append(paths, e.Path)
		dirs = append(dirs, e.Entry.Dir())
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"", "docs", "docs/a.txt", "docs/big.bin", "top.txt"}, paths)
	assert.Equal(t, []bool{true, true, false, false, false}, dirs)
}

func TestWalkSkipDir(t *testing.T) {
	t.Parallel()

	a := testutil.BuildArchive(t, sampleTree())
	arc, err := New(bytes.NewReader(a.Data))
	require.NoError(t, err)

	var paths []string
	err = arc.Walk(context.Background(), func(e *Entry) error {
		paths = append(paths, e.Path)
		if e.Path == "docs" {
			return fs.SkipDir
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"", "docs", "top.txt"}, paths)
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	t.Parallel()

	a := testutil.BuildArchive(t, sampleTree())
	arc, err := New(bytes.NewReader(a.Data))
	require.NoError(t, err)

	stop := errors.New("stop")
	err = arc.Walk(context.Background(), func(e *Entry) error {
		if e.Path == "docs/a.txt" {
			return stop
		}
		return nil
	})
	assert.ErrorIs(t, err, stop)
}

func TestWalkMaxDepth(t *testing.T) {
	t.Parallel()

	a := testutil.BuildArchive(t, testutil.Dir("",
		testutil.Dir("a", testutil.Dir("b", testutil.Dir("c"))),
	))

	arc, err := New(bytes.NewReader(a.Data), WithMaxDepth(2))
	require.NoError(t, err)
	err = arc.Walk(context.Background(), func(*Entry) error { return nil })
	assert.ErrorIs(t, err, ErrTooDeep)

	arc, err = New(bytes.NewReader(a.Data), WithMaxDepth(3))
	require.NoError(t, err)
	require.NoError(t, arc.Walk(context.Background(), func(*Entry) error { return nil }))
}

func TestOpenMemoryMap(t *testing.T) {
	t.Parallel()

	a := testutil.BuildArchive(t, sampleTree(), testutil.WithLabel("mapped"))
	path := a.WriteFile(t, t.TempDir(), "mapped.sfp")

	for _, mapped := range []bool{false, true} {
		arc, err := Open(path, WithMemoryMap(mapped))
		require.NoError(t, err)

		label, err := arc.Label()
		require.NoError(t, err)
		assert.Equal(t, "mapped", label)
		assert.Equal(t, path, arc.Path())

		dest := t.TempDir()
		stats, err := arc.ExtractTo(context.Background(), dest)
		require.NoError(t, err)
		assert.Equal(t, 2, stats.Dirs)
		assert.Equal(t, 3, stats.Files)

		got, err := os.ReadFile(filepath.Join(dest, "docs", "big.bin"))
		require.NoError(t, err)
		assert.Equal(t, patterned(5000), got)

		require.NoError(t, arc.Close())
		require.NoError(t, arc.Close(), "second close is a no-op")
	}
}

func TestCloseDoesNotCloseCallerSource(t *testing.T) {
	t.Parallel()

	a := testutil.BuildArchive(t, sampleTree())
	src := testutil.NewMockByteSource(a.Data)
	arc, err := New(src)
	require.NoError(t, err)
	require.NoError(t, arc.Close())

	_, err = arc.ExtractTo(context.Background(), t.TempDir())
	require.NoError(t, err)
}
