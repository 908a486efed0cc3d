package txstore

import "errors"

var (
	ErrNotFound  = errors.New("record not found")
	ErrEmptyKey  = errors.New("key is empty")
	ErrNilRecord = errors.New("record is nil")
	ErrScan      = errors.New("key scan failed")
)
