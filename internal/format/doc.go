// Package format decodes the fixed-size binary records of an sfp archive.
//
// An archive starts with a 64-byte header, followed somewhere by the name
// table and a region of packed 80-byte directory entries. All integers are
// little endian and records carry no padding.
package format
