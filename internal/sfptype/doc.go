// Package sfptype holds the types and sentinel errors shared by the
// internal packages and re-exported from the root package.
package sfptype
