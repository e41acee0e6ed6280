package errors

import (
	"bytes"
	stdErrors "errors"
	"log/slog"
	"strings"
	"testing"
)

func TestCLIErrorAdapter_ExitCodeFor(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())

	tests := []struct {
		name     string
		err      error
		expected int
	}{
		{name: "nil error", err: nil, expected: 0},
		{name: "validation", err: ValidationError("missing input").Build(), expected: 2},
		{name: "input stream", err: InputStreamError("truncated").Build(), expected: 3},
		{name: "config", err: ConfigError("bad config").Build(), expected: 7},
		{name: "output write", err: OutputWriteError("disk full").Build(), expected: 11},
		{name: "internal", err: InternalError("bug").Build(), expected: 10},
		{name: "unclassified", err: stdErrors.New("plain"), expected: 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := adapter.ExitCodeFor(tt.err); got != tt.expected {
				t.Errorf("ExitCodeFor() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestCLIErrorAdapter_FormatError(t *testing.T) {
	err := WrapError(stdErrors.New("zip: not a valid zip file"), CategoryInputStream, "input is not a readable archive").Build()

	quiet := NewCLIErrorAdapter(false, slog.Default())
	if msg := quiet.FormatError(err); strings.Contains(msg, "zip:") {
		t.Errorf("non-verbose output should hide the cause, got %q", msg)
	}

	verbose := NewCLIErrorAdapter(true, slog.Default())
	if msg := verbose.FormatError(err); !strings.Contains(msg, "zip: not a valid zip file") {
		t.Errorf("verbose output should include the cause, got %q", msg)
	}
}

func TestCLIErrorAdapter_HandleError(t *testing.T) {
	adapter := NewCLIErrorAdapter(false, slog.Default())
	var code int
	var stderr bytes.Buffer
	adapter.exit = func(c int) { code = c }
	adapter.stderr = &stderr

	adapter.HandleError(ValidationError("missing input").Build())
	if code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
	if got := stderr.String(); got != "Error: missing input (use -v for details)\n" {
		t.Errorf("unexpected stderr %q", got)
	}
}
