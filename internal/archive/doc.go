// Package archive decodes zip archives into an ordered, forward-only sequence
// of entries and encodes rewritten entries into a new zip archive.
//
// Reader walks the central directory in archive order. Each entry's content
// must be consumed (or drained) before the next one is requested; advancing
// closes the previous entry. Writer appends entries in call order and only
// produces a valid archive once Finalize has been called.
package archive
