package server

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/simplebank/simplebank/internal/auth"
	"github.com/simplebank/simplebank/internal/models"
	"github.com/simplebank/simplebank/internal/query"
	"github.com/simplebank/simplebank/internal/service"
	"github.com/simplebank/simplebank/internal/storage"
)

// writeJSON encodes v with the given status code.
func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

// writeMessage sends the structured JSON error body {message}.
func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeError maps a failure to its HTTP status. Recognized domain errors
// keep their message; anything else becomes a logged 500 with a generic
// body so internals never leak to clients.
func writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "Not found")
	case errors.Is(err, auth.ErrEmailExists), errors.Is(err, storage.ErrDuplicateEmail):
		writeMessage(w, http.StatusConflict, "Email already in use")
	case errors.Is(err, auth.ErrInvalidCredentials):
		writeMessage(w, http.StatusUnauthorized, "Invalid credentials")
	case errors.Is(err, auth.ErrWeakPassword),
		errors.Is(err, models.ErrInvalidAmount),
		errors.Is(err, service.ErrInvalidCurrency),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrNoValidRows),
		errors.Is(err, query.ErrNoHeader),
		errors.Is(err, query.ErrInvalidDate):
		writeMessage(w, http.StatusBadRequest, err.Error())
	default:
		slog.ErrorContext(r.Context(), "Internal error",
			"method", r.Method,
			"path", r.URL.Path,
			"error", err,
		)
		writeMessage(w, http.StatusInternalServerError, "Server error")
	}
}

// decodeJSON decodes a request body into v, rejecting unknown syntax early.
func decodeJSON(r *http.Request, v any) error {
	return json.NewDecoder(r.Body).Decode(v)
}
