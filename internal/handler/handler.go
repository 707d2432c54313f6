// Package handler contains chi HTTP handlers that translate HTTP
// requests/responses to and from the service layer.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/eventops/eventops/internal/model"
)

// ─── Helper utilities ─────────────────────────────────────────────────────────

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, model.ErrorResponse{Error: msg})
}

func decodeJSON(r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(nil, r.Body, 1<<20) // 1 MB limit
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	return dec.Decode(dst)
}

// domainStatus maps the service error taxonomy to HTTP statuses. The second
// return is false for errors outside the taxonomy, so each handler picks its
// own fallback status.
func domainStatus(err error) (int, bool) {
	switch {
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, true
	case errors.Is(err, model.ErrForbidden),
		errors.Is(err, model.ErrTicketUnavailable):
		return http.StatusForbidden, true
	case errors.Is(err, model.ErrDuplicateReservation),
		errors.Is(err, model.ErrEventFull),
		errors.Is(err, model.ErrEmailTaken):
		return http.StatusConflict, true
	case errors.Is(err, model.ErrInvalidCredentials):
		return http.StatusUnauthorized, true
	case errors.Is(err, model.ErrEventNotPublished),
		errors.Is(err, model.ErrCancelOnly):
		return http.StatusBadRequest, true
	}
	return 0, false
}

// writeDomainError writes a mapped domain error, or fallback with the error
// text when the error is outside the taxonomy.
func writeDomainError(w http.ResponseWriter, err error, fallback int) {
	if status, ok := domainStatus(err); ok {
		writeError(w, status, err.Error())
		return
	}
	msg := err.Error()
	if fallback == http.StatusInternalServerError {
		msg = "internal error"
	}
	writeError(w, fallback, msg)
}

// ─── Health check ─────────────────────────────────────────────────────────────

// HealthCheck handles GET /health
func HealthCheck(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
