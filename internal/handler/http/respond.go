package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fieldworks/realtime-service/internal/domain/apperr"
)

type errorResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps the domain error taxonomy onto HTTP statuses in one place.
func writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := "internal error"

	switch {
	case errors.Is(err, apperr.ErrUnauthenticated):
		status, msg = http.StatusUnauthorized, "unauthenticated"
	case errors.Is(err, apperr.ErrPermissionDenied):
		status, msg = http.StatusForbidden, "permission denied"
	case errors.Is(err, apperr.ErrInvalidArgument):
		status, msg = http.StatusBadRequest, err.Error()
	case errors.Is(err, apperr.ErrMailboxFull):
		status, msg = http.StatusServiceUnavailable, "mailbox full"
	case errors.Is(err, apperr.ErrUnavailable):
		status, msg = http.StatusServiceUnavailable, "dependency unavailable"
	}

	writeJSON(w, status, errorResponse{Success: false, Error: msg})
}
