package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	derrors "git.home.luguber.info/inful/dotrewrite/internal/foundation/errors"
	"git.home.luguber.info/inful/dotrewrite/internal/observability"
)

func newChain(buf *bytes.Buffer) func(http.Handler) http.Handler {
	logger := slog.New(slog.NewJSONHandler(buf, nil))
	return Chain(logger, derrors.NewHTTPErrorAdapter(logger))
}

func TestChain_LogsRequestAndAssignsID(t *testing.T) {
	var buf bytes.Buffer
	var seen string
	h := newChain(&buf)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = observability.GetContext(r.Context()).RequestID
		w.WriteHeader(http.StatusTeapot)
		_, _ = w.Write([]byte("hi"))
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/x", nil))

	assert.Equal(t, http.StatusTeapot, rec.Code)
	id := rec.Header().Get(RequestIDHeader)
	_, err := uuid.Parse(id)
	require.NoError(t, err)
	assert.Equal(t, id, seen)

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "HTTP request", line["msg"])
	assert.EqualValues(t, http.StatusTeapot, line["status"])
	assert.EqualValues(t, 2, line["bytes"])
	assert.Equal(t, id, line["request_id"])
}

func TestChain_KeepsValidIncomingID(t *testing.T) {
	var buf bytes.Buffer
	h := newChain(&buf)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))

	id := uuid.NewString()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, id)
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, id, rec.Header().Get(RequestIDHeader))

	req.Header.Set(RequestIDHeader, "<script>")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.NotEqual(t, "<script>", rec.Header().Get(RequestIDHeader))
}

func TestChain_RecoversPanics(t *testing.T) {
	var buf bytes.Buffer
	h := newChain(&buf)(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/process", nil))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	var body derrors.HTTPErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, "internal server error", body.Message)
	assert.Contains(t, buf.String(), "HTTP handler panic")
}
