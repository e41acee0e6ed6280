package handlers

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"git.home.luguber.info/inful/dotrewrite/internal/logfields"
)

// writeJSON marshals v before touching the response so an encoding failure
// can still be reported as a clean error.
func writeJSON(w http.ResponseWriter, status int, v any) error {
	return writeJSONIndent(w, status, v, false)
}

// writeJSONPretty indents the body when the query has pretty=1 or pretty=true.
func writeJSONPretty(w http.ResponseWriter, r *http.Request, status int, v any) error {
	pretty := false
	if r != nil {
		switch r.URL.Query().Get("pretty") {
		case "1", "true":
			pretty = true
		}
	}
	return writeJSONIndent(w, status, v, pretty)
}

func writeJSONIndent(w http.ResponseWriter, status int, v any, indent bool) error {
	var (
		body []byte
		err  error
	)
	if indent {
		body, err = json.MarshalIndent(v, "", "  ")
	} else {
		body, err = json.Marshal(v)
	}
	if err != nil {
		return err
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if _, err := w.Write(append(body, '\n')); err != nil {
		slog.Warn("client went away before the JSON body was written", logfields.Error(err))
		return err
	}
	return nil
}
