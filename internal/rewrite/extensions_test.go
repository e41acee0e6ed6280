package rewrite

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExtensionSet(t *testing.T) {
	s := NewExtensionSet("md", ".TXT", "", ".")

	assert.True(t, s.Contains(".dita"))
	assert.True(t, s.Contains(".PNG"), "lookup is case-insensitive")
	assert.True(t, s.Contains(".md"))
	assert.True(t, s.Contains(".txt"))
	assert.False(t, s.Contains(".zip"))
	assert.False(t, s.Contains(""))
	assert.Equal(t, len(defaultExtensions)+2, s.Len())

	assert.True(t, s.HasSuffix("topic.v2.xml"))
	assert.False(t, s.HasSuffix("noext"))
}

func TestExactExtensionSet(t *testing.T) {
	s := NewExactExtensionSet(".bin")
	assert.Equal(t, []string{".bin"}, s.List())
	assert.False(t, s.Contains(".dita"))

	var empty ExtensionSet
	assert.False(t, empty.Contains(".dita"))
}

func TestDefaultExtensionsIsCopy(t *testing.T) {
	d := DefaultExtensions()
	d[0] = ".mutated"
	assert.Equal(t, ".dita", defaultExtensions[0])
}
