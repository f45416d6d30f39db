// Package sizing provides overflow-checked offset arithmetic for archive ranges.
package sizing

import (
	"math"

	"github.com/meigma/sfpack/internal/sfptype"
)

// ToInt64 converts a uint64 offset or length to int64.
// Returns ErrSizeOverflow if it doesn't fit.
func ToInt64(v uint64) (int64, error) {
	if v > uint64(math.MaxInt64) {
		return 0, sfptype.ErrSizeOverflow
	}
	return int64(v), nil
}

// AddUint64 adds two uint64 values, returning (result, false) on overflow.
func AddUint64(a, b uint64) (uint64, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// End returns off+n as an int64, the exclusive end of the range [off, off+n).
func End(off, n uint64) (int64, error) {
	end, ok := AddUint64(off, n)
	if !ok {
		return 0, sfptype.ErrSizeOverflow
	}
	return ToInt64(end)
}

// Within reports whether [off, off+n) lies inside a source of the given size.
func Within(off, n uint64, size int64) bool {
	if size < 0 {
		return false
	}
	end, ok := AddUint64(off, n)
	if !ok {
		return false
	}
	return end <= uint64(size)
}
