package sfpack

import "github.com/meigma/sfpack/internal/sfptype"

// Re-export progress types from internal/sfptype.
type (
	// ProgressEvent reports one step of an extraction.
	ProgressEvent = sfptype.ProgressEvent

	// ProgressStage identifies the kind of event.
	ProgressStage = sfptype.ProgressStage

	// ProgressFunc receives progress events.
	// Implementations must be safe for concurrent calls.
	ProgressFunc = sfptype.ProgressFunc
)

// Re-export progress stage constants.
const (
	// StageVisiting is reported for every entry in visit order, before it
	// is materialized.
	StageVisiting = sfptype.StageVisiting

	// StageExtracted is reported after a file has been written.
	StageExtracted = sfptype.StageExtracted
)
