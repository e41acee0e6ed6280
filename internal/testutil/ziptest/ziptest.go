// Package ziptest builds and inspects zip archives in tests.
package ziptest

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Entry is one archive member. Names ending in "/" are directories.
type Entry struct {
	Name    string
	Content string
}

// Dir returns a directory entry.
func Dir(name string) Entry {
	if !strings.HasSuffix(name, "/") {
		name += "/"
	}
	return Entry{Name: name}
}

// File returns a file entry.
func File(name, content string) Entry {
	return Entry{Name: name, Content: content}
}

// Build returns an archive holding entries in order.
func Build(t testing.TB, entries ...Entry) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, e := range entries {
		w, err := zw.Create(e.Name)
		require.NoError(t, err)
		if !strings.HasSuffix(e.Name, "/") {
			_, err = io.WriteString(w, e.Content)
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

// Read decodes data and returns its entries in archive order.
func Read(t testing.TB, data []byte) []Entry {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := make([]Entry, 0, len(zr.File))
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out = append(out, Entry{Name: f.Name, Content: string(b)})
	}
	return out
}

// Assertions checks the contents of one archive fluently.
type Assertions struct {
	t       testing.TB
	entries []Entry
}

// Assert decodes data for assertions.
func Assert(t testing.TB, data []byte) *Assertions {
	t.Helper()
	return &Assertions{t: t, entries: Read(t, data)}
}

// Names asserts the exact entry names in order.
func (a *Assertions) Names(names ...string) *Assertions {
	a.t.Helper()
	got := make([]string, len(a.entries))
	for i, e := range a.entries {
		got[i] = e.Name
	}
	assert.Equal(a.t, names, got)
	return a
}

// HasEntry asserts that name is present.
func (a *Assertions) HasEntry(name string) *Assertions {
	a.t.Helper()
	if _, ok := a.find(name); !ok {
		a.t.Errorf("expected archive entry %q", name)
	}
	return a
}

// Contains asserts that entry name contains substr.
func (a *Assertions) Contains(name, substr string) *Assertions {
	a.t.Helper()
	e, ok := a.find(name)
	if !ok {
		a.t.Errorf("expected archive entry %q", name)
		return a
	}
	assert.Contains(a.t, e.Content, substr, "entry %s", name)
	return a
}

// Content asserts the exact content of entry name.
func (a *Assertions) Content(name, want string) *Assertions {
	a.t.Helper()
	e, ok := a.find(name)
	if !ok {
		a.t.Errorf("expected archive entry %q", name)
		return a
	}
	assert.Equal(a.t, want, e.Content, "entry %s", name)
	return a
}

func (a *Assertions) find(name string) (Entry, bool) {
	for _, e := range a.entries {
		if e.Name == name {
			return e, true
		}
	}
	return Entry{}, false
}
