package rewrite

import (
	"sort"
	"strings"
)

// defaultExtensions lists the href target extensions kept verbatim.
var defaultExtensions = []string{
	".dita", ".ditamap", ".xml",
	".html", ".htm", ".xhtml",
	".pdf",
	".png", ".jpg", ".jpeg", ".gif", ".svg", ".bmp", ".webp",
}

// ExtensionSet is an immutable, case-insensitive set of file extensions
// including their leading dot.
type ExtensionSet struct {
	exts map[string]struct{}
}

// DefaultExtensions returns a copy of the built-in allow-list.
func DefaultExtensions() []string {
	out := make([]string, len(defaultExtensions))
	copy(out, defaultExtensions)
	return out
}

// NewExtensionSet builds a set from the built-in allow-list plus extra.
// Entries without a leading dot get one; empty entries are ignored.
func NewExtensionSet(extra ...string) ExtensionSet {
	return newSet(append(DefaultExtensions(), extra...))
}

// NewExactExtensionSet builds a set containing only exts.
func NewExactExtensionSet(exts ...string) ExtensionSet {
	return newSet(exts)
}

func newSet(exts []string) ExtensionSet {
	s := ExtensionSet{exts: make(map[string]struct{}, len(exts))}
	for _, e := range exts {
		e = strings.ToLower(strings.TrimSpace(e))
		if e == "" || e == "." {
			continue
		}
		if e[0] != '.' {
			e = "." + e
		}
		s.exts[e] = struct{}{}
	}
	return s
}

// Contains reports whether ext (with its leading dot) is in the set.
func (s ExtensionSet) Contains(ext string) bool {
	if len(s.exts) == 0 {
		return false
	}
	_, ok := s.exts[strings.ToLower(ext)]
	return ok
}

// HasSuffix reports whether name ends with any extension in the set.
func (s ExtensionSet) HasSuffix(name string) bool {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return s.Contains(name[i:])
	}
	return false
}

// Len returns the number of extensions.
func (s ExtensionSet) Len() int { return len(s.exts) }

// List returns the extensions in sorted order.
func (s ExtensionSet) List() []string {
	out := make([]string, 0, len(s.exts))
	for e := range s.exts {
		out = append(out, e)
	}
	sort.Strings(out)
	return out
}
