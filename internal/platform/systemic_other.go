//go:build !unix

// Package platform classifies destination filesystem errors.
package platform

import (
	"errors"
	"syscall"
)

// IsSystemic reports whether err means no further entry can be written.
// Only a full disk is recognized on non-Unix systems.
func IsSystemic(err error) bool {
	return errors.Is(err, syscall.ENOSPC)
}
