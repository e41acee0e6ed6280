package errors

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"git.home.luguber.info/inful/dotrewrite/internal/logfields"
)

// Exit codes used by the dotrewrite commands.
var exitCodeByCategory = map[ErrorCategory]int{
	CategoryValidation:     2,
	CategoryInputStream:    3,
	CategoryContentRewrite: 3,
	CategoryNotFound:       4,
	CategoryConfig:         7,
	CategoryInternal:       10,
	CategoryOutputWrite:    11,
	CategoryFileSystem:     11,
	CategoryRuntime:        12,
}

// CLIErrorAdapter prints a command's error and exits with a code derived
// from its category.
type CLIErrorAdapter struct {
	verbose bool
	logger  *slog.Logger
	stderr  io.Writer
	exit    func(int)
}

func NewCLIErrorAdapter(verbose bool, logger *slog.Logger) *CLIErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &CLIErrorAdapter{verbose: verbose, logger: logger, stderr: os.Stderr, exit: os.Exit}
}

// ExitCodeFor returns 0 for nil and 1 for unclassified errors.
func (a *CLIErrorAdapter) ExitCodeFor(err error) int {
	if err == nil {
		return 0
	}
	if !IsClassified(err) {
		return 1
	}
	if code, ok := exitCodeByCategory[GetCategory(err)]; ok {
		return code
	}
	return 1
}

// FormatError hides the cause unless the adapter is verbose.
func (a *CLIErrorAdapter) FormatError(err error) string {
	if err == nil {
		return ""
	}
	c, ok := AsClassified(err)
	switch {
	case !ok:
		return "Error: " + err.Error()
	case a.verbose:
		return "Error: " + c.Error()
	default:
		return fmt.Sprintf("Error: %s (use -v for details)", c.Message())
	}
}

// HandleError is a no-op for nil. Otherwise it never returns.
func (a *CLIErrorAdapter) HandleError(err error) {
	if err == nil {
		return
	}
	if a.verbose || GetCategory(err) == CategoryInternal {
		a.logError(err)
	}
	_, _ = fmt.Fprintln(a.stderr, a.FormatError(err))
	a.exit(a.ExitCodeFor(err))
}

func (a *CLIErrorAdapter) logError(err error) {
	attrs := []slog.Attr{logfields.Error(err)}
	if c, ok := AsClassified(err); ok {
		attrs = append(attrs, slog.String("category", string(c.Category())))
		attrs = append(attrs, contextAttrs(c.Context())...)
	}
	a.logger.LogAttrs(context.Background(), slog.LevelError, "command failed", attrs...)
}
