package http

import (
	"fmt"
	"net/http"

	"github.com/fieldworks/realtime-service/internal/domain/apperr"
	"github.com/fieldworks/realtime-service/internal/domain/registry"
)

// StatsHandler exposes the hub's operational snapshot to elevated roles.
type StatsHandler struct {
	hub registry.Mailboxer
}

func NewStatsHandler(hub registry.Mailboxer) *StatsHandler {
	return &StatsHandler{hub: hub}
}

func (h *StatsHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, apperr.ErrUnauthenticated)
		return
	}
	if !ident.Elevated() {
		writeError(w, fmt.Errorf("%w: stats require an elevated role", apperr.ErrPermissionDenied))
		return
	}

	writeJSON(w, http.StatusOK, struct {
		Success bool           `json:"success"`
		Stats   registry.Stats `json:"stats"`
	}{Success: true, Stats: h.hub.Stats()})
}
