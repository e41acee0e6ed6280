package rewrite

import (
	"regexp"
	"strings"
)

// DirectoryMode selects how directory segments of an href value are rewritten.
type DirectoryMode int

const (
	// DirectoryLegacy replaces every dot in a directory segment and then
	// restores the literal "_dita" sequence to ".dita". A leading ".." is kept.
	DirectoryLegacy DirectoryMode = iota
	// DirectoryExtensionAware applies the allow-list rule to every directory
	// segment and keeps "." and ".." segments in any position.
	DirectoryExtensionAware
)

func (m DirectoryMode) String() string {
	if m == DirectoryExtensionAware {
		return "extension_aware"
	}
	return "legacy"
}

var (
	idPattern   = regexp.MustCompile(`id="([^"]*)"`)
	hrefPattern = regexp.MustCompile(`href="([^"]*)"`)
)

const (
	idPrefixLen   = len(`id="`)
	hrefPrefixLen = len(`href="`)
)

// Rewriter applies the id and href rules. It is immutable and safe for
// concurrent use.
type Rewriter struct {
	exts ExtensionSet
	mode DirectoryMode
}

// Option configures a Rewriter.
type Option func(*Rewriter)

// WithExtensions replaces the allow-list used for href targets.
func WithExtensions(exts ExtensionSet) Option {
	return func(r *Rewriter) { r.exts = exts }
}

// WithDirectoryMode selects the directory segment rule.
func WithDirectoryMode(m DirectoryMode) Option {
	return func(r *Rewriter) { r.mode = m }
}

// New returns a Rewriter using the built-in allow-list and legacy directory mode
// unless overridden.
func New(opts ...Option) *Rewriter {
	r := &Rewriter{exts: NewExtensionSet(), mode: DirectoryLegacy}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Mode returns the directory mode in effect.
func (r *Rewriter) Mode() DirectoryMode { return r.mode }

// Extensions returns the allow-list in effect.
func (r *Rewriter) Extensions() ExtensionSet { return r.exts }

// Rewrite applies the id rule and then the href rule to content. Bytes outside
// matched attribute values are copied unchanged. The input is not modified.
func (r *Rewriter) Rewrite(content []byte) []byte {
	out := idPattern.ReplaceAllFunc(content, func(m []byte) []byte {
		value := m[idPrefixLen : len(m)-1]
		return attr(m[:idPrefixLen], r.RewriteID(string(value)))
	})
	return hrefPattern.ReplaceAllFunc(out, func(m []byte) []byte {
		value := m[hrefPrefixLen : len(m)-1]
		return attr(m[:hrefPrefixLen], r.RewriteHref(string(value)))
	})
}

func attr(prefix []byte, value string) []byte {
	b := make([]byte, 0, len(prefix)+len(value)+1)
	b = append(b, prefix...)
	b = append(b, value...)
	return append(b, '"')
}

// RewriteID replaces every dot in an id attribute value.
func (r *Rewriter) RewriteID(value string) string {
	return underscore(value)
}

// RewriteHref rewrites an href attribute value segment by segment.
func (r *Rewriter) RewriteHref(value string) string {
	segments := strings.Split(value, "/")
	last := len(segments) - 1
	for i := 0; i < last; i++ {
		segments[i] = r.directorySegment(i, segments[i])
	}
	segments[last] = r.target(segments[last])
	return strings.Join(segments, "/")
}

// EntryName rewrites an archive entry path. The final segment of a file uses
// Name; directory segments keep an allow-listed extension and lose every
// other dot, so no dot is ever introduced. A trailing "/" on a directory
// entry is preserved.
func (r *Rewriter) EntryName(path string, isDir bool) string {
	trimmed := path
	if isDir {
		trimmed = strings.TrimSuffix(path, "/")
	}
	if trimmed == "" {
		return path
	}

	segments := strings.Split(trimmed, "/")
	last := len(segments) - 1
	for i := 0; i < last; i++ {
		segments[i] = r.entrySegment(i, segments[i])
	}
	if isDir {
		segments[last] = r.entrySegment(last, segments[last])
	} else {
		segments[last] = Name(segments[last])
	}

	out := strings.Join(segments, "/")
	if isDir && strings.HasSuffix(path, "/") {
		out += "/"
	}
	return out
}

// target rewrites the final href segment: the allow-listed extension of the
// name part survives, the fragment after the first '#' loses all its dots.
func (r *Rewriter) target(segment string) string {
	name, anchor, hasAnchor := strings.Cut(segment, "#")
	name = r.keepAllowedExtension(name)
	if !hasAnchor {
		return name
	}
	return name + "#" + underscore(anchor)
}

func (r *Rewriter) keepAllowedExtension(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i >= 0 && r.exts.Contains(name[i:]) {
		return underscore(name[:i]) + name[i:]
	}
	return underscore(name)
}

// entrySegment is directorySegment without the legacy "_dita" repair, which
// would turn underscores already present in an entry path into dots.
func (r *Rewriter) entrySegment(index int, segment string) string {
	if r.mode == DirectoryExtensionAware || (index == 0 && segment == "..") {
		return r.directorySegment(index, segment)
	}
	return r.keepAllowedExtension(segment)
}

func (r *Rewriter) directorySegment(index int, segment string) string {
	if r.mode == DirectoryExtensionAware {
		if segment == "." || segment == ".." {
			return segment
		}
		return r.keepAllowedExtension(segment)
	}
	if index == 0 && segment == ".." {
		return segment
	}
	return strings.ReplaceAll(underscore(segment), "_dita", ".dita")
}
