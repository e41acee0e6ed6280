package config

import (
	"fmt"
	"strings"
)

// NormalizationResult captures adjustments and warnings from the normalization pass.
type NormalizationResult struct{ Warnings []string }

// NormalizeConfig canonicalizes enumerated fields and extension lists prior to default application.
func NormalizeConfig(c *Config) *NormalizationResult {
	res := &NormalizationResult{}
	if c == nil {
		return res
	}

	var w string
	c.Rewrite.DirectoryMode, w = directoryModeNormalizer.NormalizeWithWarning("rewrite.directory_mode", string(c.Rewrite.DirectoryMode))
	res.add(w)
	c.Monitoring.Logging.Level, w = logLevelNormalizer.NormalizeWithWarning("monitoring.logging.level", string(c.Monitoring.Logging.Level))
	res.add(w)
	c.Monitoring.Logging.Format, w = logFormatNormalizer.NormalizeWithWarning("monitoring.logging.format", string(c.Monitoring.Logging.Format))
	res.add(w)
	c.Notify.RetryBackoff, w = retryBackoffNormalizer.NormalizeWithWarning("notify.retry_backoff", string(c.Notify.RetryBackoff))
	res.add(w)

	c.Rewrite.Extensions = normalizeExtensions("rewrite.extensions", c.Rewrite.Extensions, res)
	c.Rewrite.SkipExtensions = normalizeExtensions("rewrite.skip_extensions", c.Rewrite.SkipExtensions, res)
	c.Server.UploadPath = normalizeRoute(c.Server.UploadPath)
	c.Server.DownloadPath = strings.TrimSuffix(normalizeRoute(c.Server.DownloadPath), "/")
	return res
}

func (r *NormalizationResult) add(w string) {
	if w != "" {
		r.Warnings = append(r.Warnings, w)
	}
}

// normalizeExtensions lower-cases, trims, dot-prefixes and de-duplicates extension lists.
func normalizeExtensions(label string, in []string, res *NormalizationResult) []string {
	if len(in) == 0 {
		return in
	}
	seen := make(map[string]struct{}, len(in))
	out := make([]string, 0, len(in))
	for _, raw := range in {
		ext := strings.ToLower(strings.TrimSpace(raw))
		if ext == "" || ext == "." {
			res.add(fmt.Sprintf("dropped empty entry from %s", label))
			continue
		}
		if !strings.HasPrefix(ext, ".") {
			ext = "." + ext
		}
		if ext != raw {
			res.add(fmt.Sprintf("normalized %s entry from %q to %q", label, raw, ext))
		}
		if _, dup := seen[ext]; dup {
			res.add(fmt.Sprintf("dropped duplicate %s entry %q", label, ext))
			continue
		}
		seen[ext] = struct{}{}
		out = append(out, ext)
	}
	return out
}

func normalizeRoute(p string) string {
	p = strings.TrimSpace(p)
	if p == "" {
		return ""
	}
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return p
}
