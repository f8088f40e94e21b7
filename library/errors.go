package library

import "fmt"

var (
	// ErrNotFound is returned when no asset exists for the given id.
	ErrNotFound = fmt.Errorf("asset not found")
	// ErrInvalidName is returned for asset names that are empty, contain a
	// path separator or are not image files.
	ErrInvalidName = fmt.Errorf("invalid asset name")
)
