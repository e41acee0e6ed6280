package archive

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"time"

	"github.com/klauspost/compress/zip"
)

// Kind classifies an archive entry.
type Kind int

const (
	KindFile Kind = iota
	KindDirectory
)

func (k Kind) String() string {
	if k == KindDirectory {
		return "directory"
	}
	return "file"
}

// Entry is one record of an archive. Content is read through the Entry itself
// and is only available until the Reader advances.
type Entry struct {
	Path     string
	Kind     Kind
	Modified time.Time
	Mode     fs.FileMode
	Size     uint64 // uncompressed size declared by the archive

	file   *zip.File
	limit  int64
	rc     io.ReadCloser
	read   int64
	closed bool
}

// IsDir reports whether the entry is a directory marker.
func (e *Entry) IsDir() bool { return e.Kind == KindDirectory }

// Read implements io.Reader over the entry's decompressed content.
func (e *Entry) Read(p []byte) (int, error) {
	if e.closed {
		return 0, ErrEntryClosed
	}
	if e.limit > 0 && e.read > e.limit {
		return 0, fmt.Errorf("%w: %s exceeds %d bytes", ErrEntryTooLarge, e.Path, e.limit)
	}
	if e.rc == nil {
		if err := e.open(); err != nil {
			return 0, err
		}
	}
	if e.limit > 0 {
		// allow one byte past the limit so an oversized stream is detected
		if remaining := e.limit + 1 - e.read; int64(len(p)) > remaining {
			p = p[:remaining]
		}
	}
	n, err := e.rc.Read(p)
	e.read += int64(n)
	if e.limit > 0 && e.read > e.limit {
		return n, fmt.Errorf("%w: %s exceeds %d bytes", ErrEntryTooLarge, e.Path, e.limit)
	}
	if err != nil && !errors.Is(err, io.EOF) {
		return n, fmt.Errorf("%w: read %s: %w", ErrInvalidArchive, e.Path, err)
	}
	return n, err
}

func (e *Entry) open() error {
	if e.limit > 0 && e.file.UncompressedSize64 > uint64(e.limit) {
		return fmt.Errorf("%w: %s declares %d bytes, limit %d", ErrEntryTooLarge, e.Path, e.file.UncompressedSize64, e.limit)
	}
	rc, err := e.file.Open()
	if err != nil {
		return fmt.Errorf("%w: open %s: %w", ErrInvalidArchive, e.Path, err)
	}
	e.rc = rc
	return nil
}

// ReadAll accumulates the remaining content of the entry.
func (e *Entry) ReadAll() ([]byte, error) {
	var buf bytes.Buffer
	if e.Size > 0 && e.Size < 1<<30 && (e.limit == 0 || e.Size <= uint64(e.limit)) {
		buf.Grow(int(e.Size))
	}
	if _, err := buf.ReadFrom(e); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Drain discards any remaining content, verifying it decodes cleanly.
func (e *Entry) Drain() (int64, error) {
	if e.closed {
		return 0, nil
	}
	return io.Copy(io.Discard, e)
}

// Close releases the entry's decompressor. It is called by Reader.Next.
func (e *Entry) Close() error {
	if e.closed {
		return nil
	}
	e.closed = true
	if e.rc == nil {
		return nil
	}
	return e.rc.Close()
}
