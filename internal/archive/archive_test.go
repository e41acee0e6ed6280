package archive

import (
	"bytes"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testEntry struct {
	name    string
	content string
}

// buildZip writes entries in order; names ending in "/" become directories.
func buildZip(t *testing.T, entries ...testEntry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		if strings.HasSuffix(e.name, "/") {
			_, err := zw.Create(e.name)
			require.NoError(t, err)
			continue
		}
		w, err := zw.Create(e.name)
		require.NoError(t, err)
		_, err = w.Write([]byte(e.content))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func openReader(t *testing.T, data []byte, opts ...ReaderOption) *Reader {
	t.Helper()
	r, err := NewReader(bytes.NewReader(data), int64(len(data)), opts...)
	require.NoError(t, err)
	return r
}

func TestReader_OrderAndKinds(t *testing.T) {
	data := buildZip(t,
		testEntry{name: "c.txt", content: "third"},
		testEntry{name: "dir.v1/"},
		testEntry{name: "dir.v1/a.b.dita", content: `<t id="x.y"/>`},
		testEntry{name: "b.txt", content: ""},
	)
	r := openReader(t, data)
	assert.Equal(t, 4, r.Len())

	var got []string
	var kinds []Kind
	for {
		e, err := r.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		require.NoError(t, err)
		got = append(got, e.Path)
		kinds = append(kinds, e.Kind)
		if e.IsDir() {
			n, err := e.Drain()
			require.NoError(t, err)
			assert.Zero(t, n)
			continue
		}
		_, err = e.ReadAll()
		require.NoError(t, err)
	}
	assert.Equal(t, []string{"c.txt", "dir.v1/", "dir.v1/a.b.dita", "b.txt"}, got)
	assert.Equal(t, []Kind{KindFile, KindDirectory, KindFile, KindFile}, kinds)

	_, err := r.Next()
	assert.ErrorIs(t, err, io.EOF, "exhausted reader keeps returning EOF")
}

func TestReader_ContentAndAdvanceClosesEntry(t *testing.T) {
	data := buildZip(t, testEntry{name: "a", content: "hello"}, testEntry{name: "b", content: "world"})
	r := openReader(t, data)

	first, err := r.Next()
	require.NoError(t, err)
	content, err := first.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "hello", string(content))

	_, err = r.Next()
	require.NoError(t, err)
	_, err = first.Read(make([]byte, 1))
	assert.ErrorIs(t, err, ErrEntryClosed)
	require.NoError(t, r.Close())
}

func TestReader_SkippedEntryIsClosedOnNext(t *testing.T) {
	data := buildZip(t, testEntry{name: "a", content: "unread"}, testEntry{name: "b", content: "x"})
	r := openReader(t, data)
	_, err := r.Next()
	require.NoError(t, err)
	second, err := r.Next()
	require.NoError(t, err)
	assert.Equal(t, "b", second.Path)
}

func TestReader_InvalidArchive(t *testing.T) {
	for name, data := range map[string][]byte{
		"empty":   {},
		"garbage": []byte("this is not a zip archive at all"),
	} {
		t.Run(name, func(t *testing.T) {
			_, err := NewReader(bytes.NewReader(data), int64(len(data)))
			assert.ErrorIs(t, err, ErrInvalidArchive)
		})
	}
}

func TestReader_TruncatedArchive(t *testing.T) {
	data := buildZip(t, testEntry{name: "a.txt", content: strings.Repeat("x", 1000)})
	truncated := data[:len(data)/2]
	_, err := NewReader(bytes.NewReader(truncated), int64(len(truncated)))
	assert.ErrorIs(t, err, ErrInvalidArchive)
}

func TestReader_CorruptContent(t *testing.T) {
	payload := strings.Repeat("corrupt me please ", 64)
	data := buildZip(t, testEntry{name: "a.txt", content: payload})
	corrupted := bytes.Clone(data)
	// local header (30 bytes) + name; flip bytes inside the compressed stream
	start := 30 + len("a.txt")
	for i := start + 2; i < start+12; i++ {
		corrupted[i] ^= 0xff
	}

	r := openReader(t, corrupted)
	e, err := r.Next()
	require.NoError(t, err)
	_, err = e.ReadAll()
	assert.ErrorIs(t, err, ErrInvalidArchive)
}

func TestReader_MaxEntryBytes(t *testing.T) {
	data := buildZip(t, testEntry{name: "small", content: "1234"}, testEntry{name: "big", content: strings.Repeat("z", 100)})
	r := openReader(t, data, WithMaxEntryBytes(10))

	small, err := r.Next()
	require.NoError(t, err)
	content, err := small.ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "1234", string(content))

	big, err := r.Next()
	require.NoError(t, err)
	_, err = big.ReadAll()
	assert.ErrorIs(t, err, ErrEntryTooLarge)
}

func TestReader_MaxEntryBytesExactLimit(t *testing.T) {
	data := buildZip(t, testEntry{name: "exact", content: "0123456789"})
	r := openReader(t, data, WithMaxEntryBytes(10))
	e, err := r.Next()
	require.NoError(t, err)
	content, err := e.ReadAll()
	require.NoError(t, err)
	assert.Len(t, content, 10)
}

func TestWriter_RoundTrip(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	mod := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

	require.NoError(t, w.AddDirectory("topics_v1", mod))
	require.NoError(t, w.AddFile("topics_v1/a_b.dita", []byte(`<t id="x_y"/>`), mod, 0o644))
	require.NoError(t, w.AddFile("z.txt", nil, time.Time{}, 0))
	assert.Equal(t, 3, w.Entries())
	assert.True(t, w.Contains("topics_v1/"))
	assert.False(t, w.Contains("missing"))
	require.NoError(t, w.Finalize())

	zr, err := zip.NewReader(bytes.NewReader(out.Bytes()), int64(out.Len()))
	require.NoError(t, err)
	require.Len(t, zr.File, 3)
	assert.Equal(t, "topics_v1/", zr.File[0].Name)
	assert.True(t, zr.File[0].FileInfo().IsDir())
	assert.Equal(t, "topics_v1/a_b.dita", zr.File[1].Name)
	assert.Equal(t, zip.Deflate, zr.File[1].Method)
	assert.True(t, zr.File[1].Modified.Equal(mod))
	assert.False(t, zr.File[2].Modified.IsZero())

	rc, err := zr.File[1].Open()
	require.NoError(t, err)
	body, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, `<t id="x_y"/>`, string(body))
}

func TestWriter_StoreLevel(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out, WithCompressionLevel(0))
	require.NoError(t, w.AddFile("a.txt", []byte("abc"), time.Now(), 0o644))
	require.NoError(t, w.Finalize())

	zr, err := zip.NewReader(bytes.NewReader(out.Bytes()), int64(out.Len()))
	require.NoError(t, err)
	assert.Equal(t, zip.Store, zr.File[0].Method)
}

func TestWriter_AppendAfterFinalize(t *testing.T) {
	w := NewWriter(io.Discard)
	require.NoError(t, w.Finalize())
	assert.ErrorIs(t, w.AddFile("a", []byte("x"), time.Now(), 0o644), ErrFinalized)
	assert.ErrorIs(t, w.AddDirectory("d/", time.Now()), ErrFinalized)
	assert.ErrorIs(t, w.Finalize(), ErrFinalized)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("disk full") }

func TestWriter_DestinationFailure(t *testing.T) {
	w := NewWriter(failingWriter{})
	// small writes are buffered; the failure surfaces on flush at the latest
	err := w.AddFile("a.txt", bytes.Repeat([]byte("x"), 1<<20), time.Now(), 0o644)
	if err == nil {
		err = w.Finalize()
	}
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestEntryKindString(t *testing.T) {
	assert.Equal(t, "file", KindFile.String())
	assert.Equal(t, "directory", KindDirectory.String())
}

func TestWriter_KeepsPermissionBits(t *testing.T) {
	var out bytes.Buffer
	w := NewWriter(&out)
	require.NoError(t, w.AddFile("bin/run_sh", []byte("#!/bin/sh\n"), time.Now(), 0o755))
	require.NoError(t, w.AddFile("plain.txt", []byte("x"), time.Now(), 0))
	require.NoError(t, w.AddFile("shared.txt", []byte("x"), time.Now(), 0o666))
	require.NoError(t, w.Finalize())

	zr, err := zip.NewReader(bytes.NewReader(out.Bytes()), int64(out.Len()))
	require.NoError(t, err)
	assert.Equal(t, "-rwxr-xr-x", zr.File[0].Mode().String())
	assert.Equal(t, "-rw-r--r--", zr.File[1].Mode().String())
	assert.Equal(t, "-rw-r--r--", zr.File[2].Mode().String())
}
