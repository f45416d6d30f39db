//go:build unix

// Package platform classifies destination filesystem errors.
package platform

import (
	"errors"
	"syscall"
)

// IsSystemic reports whether err means no further entry can be written,
// such as a full disk or a read-only filesystem.
func IsSystemic(err error) bool {
	return errors.Is(err, syscall.ENOSPC) ||
		errors.Is(err, syscall.EDQUOT) ||
		errors.Is(err, syscall.EROFS)
}
