package errors

import (
	stderrors "errors"
	"strings"
)

// ClassifiedError is an error that knows how the HTTP and CLI surfaces
// should present it. Message is safe to show to a client; cause and context
// are for logs only.
type ClassifiedError struct {
	category ErrorCategory
	severity ErrorSeverity
	retry    RetryStrategy
	message  string
	cause    error
	context  ErrorContext
}

// Error renders "category: message[: cause]".
func (e *ClassifiedError) Error() string {
	var b strings.Builder
	b.WriteString(string(e.category))
	b.WriteString(": ")
	b.WriteString(e.message)
	if e.cause != nil {
		b.WriteString(": ")
		b.WriteString(e.cause.Error())
	}
	return b.String()
}

func (e *ClassifiedError) Unwrap() error { return e.cause }

func (e *ClassifiedError) Category() ErrorCategory      { return e.category }
func (e *ClassifiedError) Severity() ErrorSeverity      { return e.severity }
func (e *ClassifiedError) RetryStrategy() RetryStrategy { return e.retry }
func (e *ClassifiedError) Cause() error                 { return e.cause }
func (e *ClassifiedError) Context() ErrorContext        { return e.context }

// Message is the client-facing text, without the cause.
func (e *ClassifiedError) Message() string { return e.message }

// WithContext returns a copy carrying one more context value.
func (e *ClassifiedError) WithContext(key string, value any) *ClassifiedError {
	next := *e
	next.context = e.context.Merge(ErrorContext{key: value})
	return &next
}

// Is matches another ClassifiedError with the same category and message,
// so callers can compare against prebuilt values with errors.Is.
func (e *ClassifiedError) Is(target error) bool {
	other, ok := target.(*ClassifiedError)
	return ok && e.category == other.category && e.message == other.message
}

func (e *ClassifiedError) IsCategory(category ErrorCategory) bool {
	return e.category == category
}

// CanRetry reports whether retrying without outside intervention may help.
func (e *ClassifiedError) CanRetry() bool {
	switch e.retry {
	case RetryImmediate, RetryBackoff:
		return true
	default:
		return false
	}
}

// AsClassified returns the first ClassifiedError in err's chain.
func AsClassified(err error) (*ClassifiedError, bool) {
	var classified *ClassifiedError
	if !stderrors.As(err, &classified) {
		return nil, false
	}
	return classified, true
}

func IsClassified(err error) bool {
	_, ok := AsClassified(err)
	return ok
}

// HasCategory reports whether err's chain holds a ClassifiedError of category.
func HasCategory(err error, category ErrorCategory) bool {
	classified, ok := AsClassified(err)
	return ok && classified.IsCategory(category)
}

// GetCategory returns the category of err, treating unclassified errors as
// internal.
func GetCategory(err error) ErrorCategory {
	if classified, ok := AsClassified(err); ok {
		return classified.category
	}
	return CategoryInternal
}
