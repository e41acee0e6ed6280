package errors

import (
	"errors"
	"fmt"
	"testing"
)

func TestClassifiedError(t *testing.T) {
	t.Run("Basic error creation", func(t *testing.T) {
		err := NewError(CategoryConfig, "invalid configuration").
			WithSeverity(SeverityFatal).
			WithContext("file", "config.yaml").
			Build()

		if err.Category() != CategoryConfig {
			t.Errorf("expected category %s, got %s", CategoryConfig, err.Category())
		}
		if err.Severity() != SeverityFatal {
			t.Errorf("expected severity %s, got %s", SeverityFatal, err.Severity())
		}
		if err.Message() != "invalid configuration" {
			t.Errorf("expected message 'invalid configuration', got %s", err.Message())
		}

		file, exists := err.Context().GetString("file")
		if !exists || file != "config.yaml" {
			t.Errorf("expected context file=config.yaml, got %v", file)
		}
	})

	t.Run("Detection through wrapping", func(t *testing.T) {
		inner := InputStreamError("archive truncated").Build()
		wrapped := fmt.Errorf("job abc: %w", inner)

		if !IsClassified(wrapped) {
			t.Fatal("expected wrapped error to be classified")
		}
		if !HasCategory(wrapped, CategoryInputStream) {
			t.Error("expected input_stream category")
		}
		if GetCategory(errors.New("plain")) != CategoryInternal {
			t.Error("expected unclassified errors to report internal category")
		}
	})

	t.Run("WithContext does not mutate the original", func(t *testing.T) {
		base := OutputWriteError("disk full").Build()
		derived := base.WithContext("job_id", "j1")

		if _, ok := base.Context().Get("job_id"); ok {
			t.Error("original error context was mutated")
		}
		if id, _ := derived.Context().GetString("job_id"); id != "j1" {
			t.Errorf("expected derived job_id j1, got %q", id)
		}
	})
}

func TestErrorBuilder(t *testing.T) {
	t.Run("Fluent API", func(t *testing.T) {
		originalErr := errors.New("connection refused")
		err := WrapError(originalErr, CategoryNotify, "publish failed").
			Warning().
			Retryable().
			WithContext("subject", "dotrewrite.jobs").
			Build()

		if err.RetryStrategy() != RetryBackoff {
			t.Errorf("expected retry strategy %s, got %s", RetryBackoff, err.RetryStrategy())
		}
		if !errors.Is(err, originalErr) {
			t.Error("expected error to wrap original error")
		}
		if !err.CanRetry() {
			t.Error("expected backoff error to be retryable")
		}
	})

	t.Run("Convenience constructors", func(t *testing.T) {
		tests := []struct {
			name     string
			builder  *ErrorBuilder
			category ErrorCategory
			severity ErrorSeverity
			retry    RetryStrategy
		}{
			{"ConfigError", ConfigError("test"), CategoryConfig, SeverityFatal, RetryNever},
			{"ValidationError", ValidationError("test"), CategoryValidation, SeverityError, RetryUserAction},
			{"NotFoundError", NotFoundError("test"), CategoryNotFound, SeverityError, RetryNever},
			{"InputStreamError", InputStreamError("test"), CategoryInputStream, SeverityError, RetryUserAction},
			{"OutputWriteError", OutputWriteError("test"), CategoryOutputWrite, SeverityError, RetryNever},
			{"ContentRewriteError", ContentRewriteError("test"), CategoryContentRewrite, SeverityError, RetryNever},
			{"FileSystemError", FileSystemError("test"), CategoryFileSystem, SeverityError, RetryNever},
			{"NotifyError", NotifyError("test"), CategoryNotify, SeverityWarning, RetryBackoff},
			{"RuntimeError", RuntimeError("test"), CategoryRuntime, SeverityFatal, RetryNever},
			{"InternalError", InternalError("test"), CategoryInternal, SeverityFatal, RetryNever},
		}

		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				err := tt.builder.Build()
				if err.Category() != tt.category {
					t.Errorf("expected category %s, got %s", tt.category, err.Category())
				}
				if err.Severity() != tt.severity {
					t.Errorf("expected severity %s, got %s", tt.severity, err.Severity())
				}
				if err.RetryStrategy() != tt.retry {
					t.Errorf("expected retry strategy %s, got %s", tt.retry, err.RetryStrategy())
				}
			})
		}
	})
}

func TestErrorContextMerge(t *testing.T) {
	var nilCtx ErrorContext
	merged := nilCtx.Merge(ErrorContext{"a": 1})
	if v, _ := merged.Get("a"); v != 1 {
		t.Errorf("expected a=1, got %v", v)
	}

	left := ErrorContext{"a": 1, "b": 2}
	right := ErrorContext{"b": 3}
	out := left.Merge(right)
	if v, _ := out.Get("b"); v != 3 {
		t.Errorf("expected right side to win, got %v", v)
	}
	if v, _ := left.Get("b"); v != 2 {
		t.Errorf("left context mutated: %v", v)
	}
}

func TestClassifiedErrorString(t *testing.T) {
	plain := NotFoundError("File not found").Build()
	if got := plain.Error(); got != "not_found: File not found" {
		t.Errorf("unexpected message %q", got)
	}

	wrapped := WrapError(errors.New("unexpected EOF"), CategoryInputStream, "input is not a readable archive").Build()
	if got := wrapped.Error(); got != "input_stream: input is not a readable archive: unexpected EOF" {
		t.Errorf("unexpected message %q", got)
	}
}

func TestBuilderReuse(t *testing.T) {
	b := OutputWriteError("disk full").WithContext("job_id", "j1")
	first := b.Build()
	b.WithContext("job_id", "j2")

	if id, _ := first.Context().GetString("job_id"); id != "j1" {
		t.Errorf("built error changed with its builder: %q", id)
	}
}
