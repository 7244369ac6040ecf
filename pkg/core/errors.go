package core

import "errors"

// Common errors.
var (
	ErrReadOnly = errors.New("store is in read-only mode")
	ErrNotFound = errors.New("not found")
)
