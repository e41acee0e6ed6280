package errors

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sort"

	"git.home.luguber.info/inful/dotrewrite/internal/logfields"
)

// statusByCategory lists every category that does not map to 500.
var statusByCategory = map[ErrorCategory]int{
	CategoryValidation:     http.StatusBadRequest,
	CategoryConfig:         http.StatusBadRequest,
	CategoryNotFound:       http.StatusNotFound,
	CategoryTooLarge:       http.StatusRequestEntityTooLarge,
	CategoryInputStream:    http.StatusUnprocessableEntity,
	CategoryContentRewrite: http.StatusUnprocessableEntity,
	CategoryRuntime:        http.StatusServiceUnavailable,
}

// HTTPErrorAdapter turns errors into JSON responses for the upload and
// download handlers.
type HTTPErrorAdapter struct {
	logger *slog.Logger
}

// NewHTTPErrorAdapter uses slog.Default when logger is nil.
func NewHTTPErrorAdapter(logger *slog.Logger) *HTTPErrorAdapter {
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPErrorAdapter{logger: logger}
}

// HTTPErrorResponse is the body of every error response. It carries the
// client-safe message only, never the cause or context.
type HTTPErrorResponse struct {
	Message   string `json:"message"`
	Code      string `json:"code,omitempty"`
	Retryable bool   `json:"retryable,omitempty"`
}

func (a *HTTPErrorAdapter) StatusCodeFor(err error) int {
	if err == nil {
		return http.StatusOK
	}
	if status, ok := statusByCategory[GetCategory(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

func (a *HTTPErrorAdapter) FormatErrorResponse(err error) HTTPErrorResponse {
	if err == nil {
		return HTTPErrorResponse{}
	}
	c, ok := AsClassified(err)
	if !ok {
		return HTTPErrorResponse{Message: "internal error", Code: string(CategoryInternal)}
	}
	return HTTPErrorResponse{
		Message:   c.Message(),
		Code:      string(c.Category()),
		Retryable: c.CanRetry(),
	}
}

// WriteErrorResponse writes the JSON body and logs the full error, cause
// included, at a level derived from its severity.
func (a *HTTPErrorAdapter) WriteErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	if err == nil {
		w.WriteHeader(http.StatusOK)
		return
	}

	status := a.StatusCodeFor(err)
	body, jerr := json.Marshal(a.FormatErrorResponse(err))
	if jerr != nil {
		body = []byte(`{"message":"internal error"}`)
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(body)

	attrs := []slog.Attr{
		logfields.Method(r.Method),
		logfields.Path(r.URL.Path),
		logfields.Status(status),
		logfields.Error(err),
	}
	level := slog.LevelError
	if c, ok := AsClassified(err); ok {
		level = levelFor(c.Severity())
		attrs = append(attrs, contextAttrs(c.Context())...)
	}
	a.logger.LogAttrs(r.Context(), level, "request failed", attrs...)
}

func levelFor(s ErrorSeverity) slog.Level {
	switch s {
	case SeverityInfo:
		return slog.LevelInfo
	case SeverityWarning:
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

// contextAttrs renders context values in key order so log lines are stable.
func contextAttrs(ctx ErrorContext) []slog.Attr {
	keys := make([]string, 0, len(ctx))
	for k := range ctx {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]slog.Attr, 0, len(keys))
	for _, k := range keys {
		out = append(out, slog.Any(k, ctx[k]))
	}
	return out
}
