package xltpl

import "errors"

// Structural errors abort a fill run outright; everything else is recorded
// in the report and processing continues.
var (
	// ErrNoMappings means the filler was given neither a mapping config nor
	// a config path.
	ErrNoMappings = errors.New("no field mappings provided or loaded")

	// ErrDataRootNotFound means the configured json_root resolved to nothing
	// in the source document.
	ErrDataRootNotFound = errors.New("data root not found")
)
