package archive

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/zip"
)

// Reader presents a zip archive as an ordered, forward-only entry sequence.
type Reader struct {
	zr       *zip.Reader
	next     int
	current  *Entry
	maxEntry int64
}

// ReaderOption configures a Reader.
type ReaderOption func(*Reader)

// WithMaxEntryBytes caps the decompressed size of any single entry. Zero disables the cap.
func WithMaxEntryBytes(n int64) ReaderOption {
	return func(r *Reader) { r.maxEntry = n }
}

// NewReader decodes the central directory of the size-byte archive at r.
func NewReader(r io.ReaderAt, size int64, opts ...ReaderOption) (*Reader, error) {
	zr, err := zip.NewReader(r, size)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidArchive, err)
	}
	rd := &Reader{zr: zr}
	for _, opt := range opts {
		opt(rd)
	}
	return rd, nil
}

// Len returns the number of entries in the archive.
func (r *Reader) Len() int { return len(r.zr.File) }

// Next closes the previous entry and returns the following one, or io.EOF
// once the archive is exhausted.
func (r *Reader) Next() (*Entry, error) {
	if r.current != nil {
		if err := r.current.Close(); err != nil {
			return nil, fmt.Errorf("%w: close %s: %w", ErrInvalidArchive, r.current.Path, err)
		}
		r.current = nil
	}
	if r.next >= len(r.zr.File) {
		return nil, io.EOF
	}
	f := r.zr.File[r.next]
	r.next++

	kind := KindFile
	if strings.HasSuffix(f.Name, "/") || f.FileInfo().IsDir() {
		kind = KindDirectory
	}
	r.current = &Entry{
		Path:     f.Name,
		Kind:     kind,
		Modified: f.Modified,
		Mode:     f.Mode(),
		Size:     f.UncompressedSize64,
		file:     f,
		limit:    r.maxEntry,
	}
	return r.current, nil
}

// Close releases the current entry.
func (r *Reader) Close() error {
	if r.current == nil {
		return nil
	}
	err := r.current.Close()
	r.current = nil
	return err
}
