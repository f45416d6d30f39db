package sfpack

import (
	"path/filepath"
	"strings"
)

// noExtSuffix is appended to archives without an extension so the output
// directory does not collide with the archive itself.
const noExtSuffix = ".d"

// OutputDir returns the default extraction directory for an archive:
// the archive path with its extension removed ("data/foo.sfp" becomes
// "data/foo"). An archive without an extension maps to path + ".d".
func OutputDir(archivePath string) string {
	ext := filepath.Ext(archivePath)
	base := strings.TrimSuffix(archivePath, ext)
	if ext == "" || base == "" || strings.HasSuffix(base, string(filepath.Separator)) {
		return archivePath + noExtSuffix
	}
	return base
}
