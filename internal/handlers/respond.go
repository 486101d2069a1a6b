// Package handlers implements the JSON HTTP API.
package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"intercept/internal/content"
)

// writeJSON writes v as a JSON response with the given status.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("encode response", "error", err)
	}
}

// writeError writes a JSON error envelope.
func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeServiceError maps content service errors to HTTP responses.
func writeServiceError(w http.ResponseWriter, err error) {
	var verr *content.ValidationError
	switch {
	case errors.As(err, &verr):
		writeError(w, http.StatusBadRequest, verr.Reason)
	case errors.Is(err, content.ErrNotFound):
		writeError(w, http.StatusNotFound, "Not found.")
	case errors.Is(err, content.ErrForbidden):
		writeError(w, http.StatusForbidden, "Admin access required.")
	default:
		slog.Error("request failed", "error", err)
		writeError(w, http.StatusInternalServerError, "Something went wrong.")
	}
}

// decodeJSON decodes a request body into dst, rejecting unknown fields
// and trailing garbage.
func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if dec.More() {
		return errors.New("unexpected data after JSON body")
	}
	return nil
}
