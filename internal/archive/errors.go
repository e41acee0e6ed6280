package archive

import "errors"

var (
	// ErrInvalidArchive reports input that cannot be decoded as a zip archive.
	ErrInvalidArchive = errors.New("invalid archive")
	// ErrEntryTooLarge reports an entry whose content exceeds the configured limit.
	ErrEntryTooLarge = errors.New("archive entry too large")
	// ErrFinalized reports an append or second finalize after Finalize.
	ErrFinalized = errors.New("archive writer already finalized")
	// ErrEntryClosed reports a read from an entry the reader has moved past.
	ErrEntryClosed = errors.New("archive entry closed")
)
