package repository

import "errors"

// Sentinel kinds for store errors. Callers use errors.Is.
var (
	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("already exists")
)
