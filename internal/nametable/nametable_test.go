package nametable

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/meigma/sfpack/internal/sfptype"
)

func TestResolve(t *testing.T) {
	t.Parallel()

	tbl := New([]byte("\x00root\x00docs\x00readme.txt\x00tail"), 68)

	tests := []struct {
		name string
		off  uint64
		want string
	}{
		{name: "sentinel", off: 0, want: ""},
		{name: "first", off: 69, want: "root"},
		{name: "second", off: 74, want: "docs"},
		{name: "third", off: 79, want: "readme.txt"},
		{name: "mid name", off: 71, want: "ot"},
		{name: "empty at separator", off: 73, want: ""},
		{name: "unterminated", off: 90, want: "tail"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			got, err := tbl.Resolve(tt.off)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolveOutOfRange(t *testing.T) {
	t.Parallel()

	tbl := New([]byte("\x00root\x00"), 68)

	for _, off := range []uint64{1, 67, 74, 1 << 63} {
		_, err := tbl.Resolve(off)
		require.ErrorIs(t, err, sfptype.ErrNameOutOfRange, "offset %d", off)
		require.ErrorIs(t, err, sfptype.ErrCorrupt)
	}
}

func TestBytesAliasesTable(t *testing.T) {
	t.Parallel()

	data := []byte("\x00root\x00")
	tbl := New(data, 100)

	b, err := tbl.Bytes(101)
	require.NoError(t, err)
	require.Equal(t, []byte("root"), b)
	assert.Same(t, &data[1], &b[0])
	assert.Equal(t, 6, tbl.Len())
	assert.True(t, tbl.Contains(100))
	assert.False(t, tbl.Contains(106))
}
