// Package normalization maps loosely-typed config strings onto typed enums.
package normalization

import (
	"fmt"
	"sort"
	"strings"
)

// Normalizer provides type-safe string-to-enum normalization.
type Normalizer[T comparable] struct {
	values       map[string]T
	defaultValue T
	keys         []string
}

// NewNormalizer creates a normalizer from raw spellings to enum values.
// Keys are folded to lower case and trimmed, matching how input is folded.
func NewNormalizer[T comparable](values map[string]T, defaultValue T) *Normalizer[T] {
	folded := make(map[string]T, len(values))
	keys := make([]string, 0, len(values))
	for k, v := range values {
		key := fold(k)
		folded[key] = v
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return &Normalizer[T]{values: folded, defaultValue: defaultValue, keys: keys}
}

// Normalize returns the enum value for raw, or the default when raw is unknown.
func (n *Normalizer[T]) Normalize(raw string) T {
	if v, ok := n.Lookup(raw); ok {
		return v
	}
	return n.defaultValue
}

// Lookup reports whether raw names a known value.
func (n *Normalizer[T]) Lookup(raw string) (T, bool) {
	v, ok := n.values[fold(raw)]
	return v, ok
}

// NormalizeWithWarning normalizes raw and describes any change made to it.
// Empty input silently takes the default.
func (n *Normalizer[T]) NormalizeWithWarning(field, raw string) (T, string) {
	if strings.TrimSpace(raw) == "" {
		return n.defaultValue, ""
	}
	v, ok := n.Lookup(raw)
	if !ok {
		return n.defaultValue, fmt.Sprintf("unknown %s %q, using %v (valid: %s)", field, raw, n.defaultValue, strings.Join(n.keys, ", "))
	}
	if fold(raw) != raw {
		return v, fmt.Sprintf("normalized %s from %q to %q", field, raw, fold(raw))
	}
	return v, ""
}

// ValidKeys returns all accepted spellings in sorted order.
func (n *Normalizer[T]) ValidKeys() []string {
	out := make([]string, len(n.keys))
	copy(out, n.keys)
	return out
}

func fold(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
