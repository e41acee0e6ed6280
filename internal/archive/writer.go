package archive

import (
	"bufio"
	"fmt"
	"io"
	"io/fs"
	"strings"
	"time"

	"github.com/klauspost/compress/flate"
	"github.com/klauspost/compress/zip"
)

const writeBufferSize = 64 << 10

// Writer appends entries to a zip archive in call order.
type Writer struct {
	bw        *bufio.Writer
	zw        *zip.Writer
	level     int
	finalized bool
	entries   int
	names     map[string]struct{}
}

// WriterOption configures a Writer.
type WriterOption func(*Writer)

// WithCompressionLevel sets the deflate level. Level 0 stores entries uncompressed.
func WithCompressionLevel(level int) WriterOption {
	return func(w *Writer) { w.level = level }
}

// NewWriter returns a Writer emitting to dst. dst is not closed by Finalize.
func NewWriter(dst io.Writer, opts ...WriterOption) *Writer {
	w := &Writer{level: flate.BestCompression, names: make(map[string]struct{})}
	for _, opt := range opts {
		opt(w)
	}
	w.bw = bufio.NewWriterSize(dst, writeBufferSize)
	w.zw = zip.NewWriter(w.bw)
	level := w.level
	w.zw.RegisterCompressor(zip.Deflate, func(out io.Writer) (io.WriteCloser, error) {
		return flate.NewWriter(out, level)
	})
	return w
}

// AddFile appends a file entry holding content. The permission bits of mode
// are kept minus group and other write; zero permissions become 0644.
func (w *Writer) AddFile(name string, content []byte, modified time.Time, mode fs.FileMode) error {
	method := zip.Deflate
	if w.level == flate.NoCompression {
		method = zip.Store
	}
	hdr := &zip.FileHeader{Name: name, Method: method, Modified: modified}
	perm := mode.Perm() &^ 0o022
	if perm == 0 {
		perm = 0o644
	}
	hdr.SetMode(perm)

	dst, err := w.create(hdr)
	if err != nil {
		return err
	}
	if _, err := dst.Write(content); err != nil {
		return fmt.Errorf("write entry %s: %w", name, err)
	}
	return nil
}

// AddDirectory appends a directory marker. A trailing "/" is added when missing.
func (w *Writer) AddDirectory(name string, modified time.Time) error {
	if !strings.HasSuffix(name, "/") {
		name += "/"
	}
	hdr := &zip.FileHeader{Name: name, Method: zip.Store, Modified: modified}
	hdr.SetMode(fs.ModeDir | 0o755)
	_, err := w.create(hdr)
	return err
}

func (w *Writer) create(hdr *zip.FileHeader) (io.Writer, error) {
	if w.finalized {
		return nil, ErrFinalized
	}
	if hdr.Modified.IsZero() {
		hdr.Modified = time.Now()
	}
	dst, err := w.zw.CreateHeader(hdr)
	if err != nil {
		return nil, fmt.Errorf("create entry %s: %w", hdr.Name, err)
	}
	w.entries++
	w.names[hdr.Name] = struct{}{}
	return dst, nil
}

// Contains reports whether an entry named name was already appended.
func (w *Writer) Contains(name string) bool {
	_, ok := w.names[name]
	return ok
}

// Entries returns the number of appended entries.
func (w *Writer) Entries() int { return w.entries }

// Finalize writes the central directory and flushes buffered output.
func (w *Writer) Finalize() error {
	if w.finalized {
		return ErrFinalized
	}
	w.finalized = true
	if err := w.zw.Close(); err != nil {
		return fmt.Errorf("finalize archive: %w", err)
	}
	if err := w.bw.Flush(); err != nil {
		return fmt.Errorf("flush archive: %w", err)
	}
	return nil
}
