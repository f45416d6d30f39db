package platform

import (
	"errors"
	"fmt"
	"io/fs"
	"syscall"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestIsSystemic(t *testing.T) {
	t.Parallel()

	full := &fs.PathError{Op: "write", Path: "x", Err: syscall.ENOSPC}
	assert.True(t, IsSystemic(full))
	assert.True(t, IsSystemic(fmt.Errorf("copy: %w", full)))

	assert.False(t, IsSystemic(nil))
	assert.False(t, IsSystemic(errors.New("boom")))
	assert.False(t, IsSystemic(&fs.PathError{Op: "open", Path: "x", Err: fs.ErrPermission}))
}
