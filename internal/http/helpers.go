package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"bizbook/internal/books"
	"bizbook/internal/core"
)

type contextKey string

const (
	requestIDKey contextKey = "request_id"
	identityKey  contextKey = "identity"
)

// identityFrom returns the authenticated identity, or a zero value when the
// server runs without an auth provider.
func identityFrom(r *http.Request) core.Identity {
	if identity, ok := r.Context().Value(identityKey).(core.Identity); ok {
		return identity
	}
	return core.Identity{}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// writeDomainError maps domain errors onto HTTP statuses.
func writeDomainError(w http.ResponseWriter, err error) {
	var verr *core.ValidationError
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusUnprocessableEntity, map[string]string{
			"error": verr.Error(),
			"field": verr.Field,
		})
		return
	}
	if errors.Is(err, core.ErrNotFound) {
		writeError(w, http.StatusNotFound, "record not found")
		return
	}
	var syncErr *books.SyncError
	if errors.As(err, &syncErr) {
		writeJSON(w, http.StatusBadGateway, map[string]string{
			"error": syncErr.Error(),
			"note":  "remote store unreachable; the local dataset remains authoritative",
		})
		return
	}
	writeError(w, http.StatusInternalServerError, "internal error")
}

func methodNotAllowed(w http.ResponseWriter, allowed string) {
	w.Header().Set("Allow", allowed)
	writeError(w, http.StatusMethodNotAllowed, "method not allowed")
}
