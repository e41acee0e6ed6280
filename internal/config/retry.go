package config

import "git.home.luguber.info/inful/dotrewrite/internal/foundation/normalization"

// RetryBackoffMode enumerates supported backoff strategies for retries.
type RetryBackoffMode string

const (
	RetryBackoffFixed       RetryBackoffMode = "fixed"
	RetryBackoffLinear      RetryBackoffMode = "linear"
	RetryBackoffExponential RetryBackoffMode = "exponential"
)

var retryBackoffNormalizer = normalization.NewNormalizer(map[string]RetryBackoffMode{
	"fixed":       RetryBackoffFixed,
	"linear":      RetryBackoffLinear,
	"exponential": RetryBackoffExponential,
}, RetryBackoffExponential)

// NormalizeRetryBackoff converts user input (case-insensitive) into a typed mode, returning "" for unknown.
func NormalizeRetryBackoff(raw string) RetryBackoffMode {
	m, ok := retryBackoffNormalizer.Lookup(raw)
	if !ok {
		return ""
	}
	return m
}

// DirectoryMode selects how directory segments of href targets are rewritten.
type DirectoryMode string

const (
	DirectoryModeLegacy         DirectoryMode = "legacy"
	DirectoryModeExtensionAware DirectoryMode = "extension_aware"
)

var directoryModeNormalizer = normalization.NewNormalizer(map[string]DirectoryMode{
	"legacy":          DirectoryModeLegacy,
	"extension_aware": DirectoryModeExtensionAware,
	"extension-aware": DirectoryModeExtensionAware,
}, DirectoryModeLegacy)

func NormalizeDirectoryMode(raw string) DirectoryMode {
	return directoryModeNormalizer.Normalize(raw)
}
