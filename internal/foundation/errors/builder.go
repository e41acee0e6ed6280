package errors

import "maps"

// ErrorBuilder assembles a ClassifiedError. New builders default to
// SeverityError and RetryNever.
type ErrorBuilder struct {
	err ClassifiedError
}

// NewError starts a builder for category with a client-safe message.
func NewError(category ErrorCategory, message string) *ErrorBuilder {
	return &ErrorBuilder{err: ClassifiedError{
		category: category,
		severity: SeverityError,
		retry:    RetryNever,
		message:  message,
		context:  ErrorContext{},
	}}
}

// WrapError is NewError with cause attached.
func WrapError(cause error, category ErrorCategory, message string) *ErrorBuilder {
	return NewError(category, message).WithCause(cause)
}

func (b *ErrorBuilder) WithCause(err error) *ErrorBuilder {
	b.err.cause = err
	return b
}

func (b *ErrorBuilder) WithSeverity(severity ErrorSeverity) *ErrorBuilder {
	b.err.severity = severity
	return b
}

func (b *ErrorBuilder) WithRetry(strategy RetryStrategy) *ErrorBuilder {
	b.err.retry = strategy
	return b
}

// WithContext records a log-only detail (job id, entry name, path).
func (b *ErrorBuilder) WithContext(key string, value any) *ErrorBuilder {
	b.err.context = b.err.context.Set(key, value)
	return b
}

func (b *ErrorBuilder) Fatal() *ErrorBuilder      { return b.WithSeverity(SeverityFatal) }
func (b *ErrorBuilder) Warning() *ErrorBuilder    { return b.WithSeverity(SeverityWarning) }
func (b *ErrorBuilder) Retryable() *ErrorBuilder  { return b.WithRetry(RetryBackoff) }
func (b *ErrorBuilder) UserAction() *ErrorBuilder { return b.WithRetry(RetryUserAction) }

// Build returns the error. The builder may be reused; later changes do not
// affect errors already built.
func (b *ErrorBuilder) Build() *ClassifiedError {
	out := b.err
	out.context = maps.Clone(b.err.context)
	return &out
}

// ConfigError reports an unusable configuration file or flag.
func ConfigError(message string) *ErrorBuilder {
	return NewError(CategoryConfig, message).Fatal()
}

// ValidationError reports a request or argument the caller must fix.
func ValidationError(message string) *ErrorBuilder {
	return NewError(CategoryValidation, message).UserAction()
}

func NotFoundError(message string) *ErrorBuilder {
	return NewError(CategoryNotFound, message)
}

// InputStreamError reports an input that is not a readable archive.
// The run is aborted and never retried.
func InputStreamError(message string) *ErrorBuilder {
	return NewError(CategoryInputStream, message).UserAction()
}

// OutputWriteError reports that compressed output could not be written.
func OutputWriteError(message string) *ErrorBuilder {
	return NewError(CategoryOutputWrite, message)
}

func ContentRewriteError(message string) *ErrorBuilder {
	return NewError(CategoryContentRewrite, message)
}

func FileSystemError(message string) *ErrorBuilder {
	return NewError(CategoryFileSystem, message)
}

// NotifyError reports a failed job event publish. Jobs never fail on it.
func NotifyError(message string) *ErrorBuilder {
	return NewError(CategoryNotify, message).Warning().Retryable()
}

func RuntimeError(message string) *ErrorBuilder {
	return NewError(CategoryRuntime, message).Fatal()
}

func InternalError(message string) *ErrorBuilder {
	return NewError(CategoryInternal, message).Fatal()
}
