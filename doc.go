// Package sfpack extracts sequential-file-package (.sfp) archives.
//
// An archive holds a fixed header, a table of NUL-terminated names and a
// region of packed directory-entry records. Directories list their children
// as a contiguous run of records; files point at their content. Extraction
// walks that tree depth first and recreates it on disk, restoring each
// file's timestamps.
//
// # Quick Start
//
//	a, err := sfpack.Open("game.sfp")
//	if err != nil {
//	    return err
//	}
//	defer a.Close()
//
//	stats, err := a.Extract(ctx) // into ./game
//
// # Listing
//
// Walk visits every entry without touching the filesystem:
//
//	err := a.Walk(ctx, func(e *sfpack.Entry) error {
//	    fmt.Println(e.Path)
//	    return nil
//	})
//
// # Validation
//
// Archives are read leniently by default: magic and version are not
// checked. WithStrict enables structural checks on the header and on every
// visited entry. Truncated records, out-of-range names and runaway nesting
// are always reported as errors matching ErrCorrupt.
package sfpack
