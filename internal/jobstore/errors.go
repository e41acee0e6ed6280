package jobstore

import "errors"

var (
	// ErrNotFound reports a missing artifact, or one already claimed.
	ErrNotFound = errors.New("artifact not found")
	// ErrDuplicate reports an artifact id that is already registered.
	ErrDuplicate = errors.New("artifact already exists")
)
