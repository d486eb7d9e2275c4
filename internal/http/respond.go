package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"outlay/internal/core"
)

// envelope is the uniform response shape: {"ok": true, "data": ...} on
// success, {"ok": false, "error": "..."} on failure.
type envelope struct {
	OK    bool   `json:"ok"`
	Data  any    `json:"data,omitempty"`
	Error string `json:"error,omitempty"`
}

func respondData(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, envelope{OK: true, Data: data})
}

func respondErrorMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, envelope{OK: false, Error: message})
}

// respondError maps domain errors onto HTTP statuses: validation
// failures become 400, hidden or missing resources 404, visible but
// unauthorized operations 403. Anything else is a 500 with the detail
// kept out of the response body.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case core.IsValidation(err):
		respondErrorMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, core.ErrNotFound):
		respondErrorMessage(w, http.StatusNotFound, "not found")
	case errors.Is(err, core.ErrForbidden):
		respondErrorMessage(w, http.StatusForbidden, "forbidden")
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		respondErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// decodeBody parses a JSON request body into dst, rejecting unknown
// fields so typos fail loudly instead of being silently dropped.
func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return core.ValidationError("invalid request body: " + err.Error())
	}
	return nil
}
