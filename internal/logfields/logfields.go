// Package logfields defines canonical structured log keys shared by all packages.
package logfields

import "log/slog"

// Canonical log field name constants to avoid drift across packages.
const (
	KeyJobID        = "job_id"
	KeyJobStatus    = "job_status"
	KeyStage        = "stage"
	KeyDurationMS   = "duration_ms"
	KeyEntry        = "entry"
	KeyEntryKind    = "entry_kind"
	KeyOutputEntry  = "output_entry"
	KeyEntries      = "entries"
	KeyBytes        = "bytes"
	KeyDigest       = "digest"
	KeyDownloadName = "download_name"
	KeyPath         = "path"
	KeyFile         = "file"
	KeySubject      = "subject"
	KeyAttempt      = "attempt"
	KeyMethod       = "method"
	KeyStatus       = "status"
	KeyUserAgent    = "user_agent"
	KeyRemoteAddr   = "remote_addr"
	KeyError        = "error"
)

// Simple helpers returning slog.Attr. Keeping each granular means callers can compose.
func JobID(id string) slog.Attr         { return slog.String(KeyJobID, id) }
func JobStatus(s string) slog.Attr      { return slog.String(KeyJobStatus, s) }
func Stage(name string) slog.Attr       { return slog.String(KeyStage, name) }
func DurationMS(ms float64) slog.Attr   { return slog.Float64(KeyDurationMS, ms) }
func Entry(name string) slog.Attr       { return slog.String(KeyEntry, name) }
func EntryKind(kind string) slog.Attr   { return slog.String(KeyEntryKind, kind) }
func OutputEntry(name string) slog.Attr { return slog.String(KeyOutputEntry, name) }
func Entries(n int) slog.Attr           { return slog.Int(KeyEntries, n) }
func Bytes(n int64) slog.Attr           { return slog.Int64(KeyBytes, n) }
func Digest(d string) slog.Attr         { return slog.String(KeyDigest, d) }
func DownloadName(n string) slog.Attr   { return slog.String(KeyDownloadName, n) }
func Path(p string) slog.Attr           { return slog.String(KeyPath, p) }
func File(f string) slog.Attr           { return slog.String(KeyFile, f) }
func Subject(s string) slog.Attr        { return slog.String(KeySubject, s) }
func Attempt(n int) slog.Attr           { return slog.Int(KeyAttempt, n) }
func Method(m string) slog.Attr         { return slog.String(KeyMethod, m) }
func Status(code int) slog.Attr         { return slog.Int(KeyStatus, code) }
func UserAgent(ua string) slog.Attr     { return slog.String(KeyUserAgent, ua) }
func RemoteAddr(addr string) slog.Attr  { return slog.String(KeyRemoteAddr, addr) }
func Error(err error) slog.Attr {
	if err == nil {
		return slog.String(KeyError, "")
	}
	return slog.String(KeyError, err.Error())
}
