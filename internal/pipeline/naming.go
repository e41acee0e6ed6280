package pipeline

import (
	"path"
	"strings"
)

const fallbackDownloadName = "archive"

// DownloadName derives the user-facing artifact name from an uploaded file
// name: the base name without its last extension, plus ".zip". Names that
// reduce to nothing become "archive.zip".
func DownloadName(original string) string {
	base := path.Base(strings.ReplaceAll(original, `\`, "/"))
	base = strings.TrimSuffix(base, path.Ext(base))
	base = strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f || r == '"' || r == '/' {
			return '_'
		}
		return r
	}, base)
	if strings.Trim(base, ". ") == "" {
		base = fallbackDownloadName
	}
	return base + ".zip"
}
