package rewrite

import "strings"

// Name rewrites a single filename: every dot before the last one becomes an
// underscore and the final extension is kept. A name without a dot is
// returned unchanged, and a name made only of dots becomes the same number of
// underscores.
func Name(name string) string {
	i := strings.LastIndexByte(name, '.')
	if i < 0 {
		return name
	}
	if strings.Trim(name, ".") == "" {
		return strings.Repeat("_", len(name))
	}
	return underscore(name[:i]) + name[i:]
}

// underscore replaces every dot in s.
func underscore(s string) string {
	return strings.ReplaceAll(s, ".", "_")
}
