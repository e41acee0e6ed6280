package errors

import "maps"

// ErrorCategory decides the HTTP status and CLI exit code of an error.
type ErrorCategory string

// Caller mistakes.
const (
	CategoryConfig     ErrorCategory = "config"
	CategoryValidation ErrorCategory = "validation"
	CategoryNotFound   ErrorCategory = "not_found"
	CategoryTooLarge   ErrorCategory = "too_large"
)

// Pipeline failures. A run that fails with any of these produces no artifact.
const (
	CategoryInputStream    ErrorCategory = "input_stream"    // undecodable or truncated archive
	CategoryOutputWrite    ErrorCategory = "output_write"    // output destination not writable
	CategoryContentRewrite ErrorCategory = "content_rewrite" // reserved; rewrite rules are total today
)

// Infrastructure.
const (
	CategoryFileSystem ErrorCategory = "filesystem"
	CategoryNotify     ErrorCategory = "notify"
	CategoryRuntime    ErrorCategory = "runtime"
	CategoryInternal   ErrorCategory = "internal"
)

// ErrorSeverity sets the log level an adapter uses for the error.
type ErrorSeverity string

const (
	SeverityFatal   ErrorSeverity = "fatal"
	SeverityError   ErrorSeverity = "error"
	SeverityWarning ErrorSeverity = "warning"
	SeverityInfo    ErrorSeverity = "info"
)

// RetryStrategy is surfaced to HTTP clients as the "retryable" flag.
type RetryStrategy string

const (
	RetryNever      RetryStrategy = "never"
	RetryImmediate  RetryStrategy = "immediate"
	RetryBackoff    RetryStrategy = "backoff"
	RetryUserAction RetryStrategy = "user" // the request must change first
)

// ErrorContext holds log-only details such as job ids and entry names.
type ErrorContext map[string]any

// Set stores value under key, allocating the map when needed.
func (c ErrorContext) Set(key string, value any) ErrorContext {
	if c == nil {
		c = ErrorContext{}
	}
	c[key] = value
	return c
}

func (c ErrorContext) Get(key string) (any, bool) {
	v, ok := c[key]
	return v, ok
}

func (c ErrorContext) GetString(key string) (string, bool) {
	s, ok := c[key].(string)
	return s, ok
}

// Merge returns a new context with other's values overriding c's.
// Neither input is modified.
func (c ErrorContext) Merge(other ErrorContext) ErrorContext {
	switch {
	case len(c) == 0:
		return other
	case len(other) == 0:
		return c
	}
	out := make(ErrorContext, len(c)+len(other))
	maps.Copy(out, c)
	maps.Copy(out, other)
	return out
}
