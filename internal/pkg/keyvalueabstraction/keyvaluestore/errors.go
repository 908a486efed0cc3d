package keyvaluestore

import "errors"

var (
	// ErrNotFound is returned by the getValue callback of ListKeys when the key disappeared after it was scanned.
	ErrNotFound = errors.New("key not found")

	// ErrConflict is returned by Update when the key kept changing concurrently.
	ErrConflict = errors.New("key was modified concurrently")
)
