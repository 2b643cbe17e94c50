package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/fieldworks/realtime-service/internal/auth"
)

// NewRouter assembles the relay's HTTP surface.
func NewRouter(
	logger *slog.Logger,
	verifier *auth.Verifier,
	stream *StreamHandler,
	ws *WSHandler,
	publish *PublishHandler,
	presence *PresenceHandler,
	stats *StatsHandler,
) *chi.Mux {
	r := chi.NewRouter()
	r.Use(chimiddleware.Recoverer)
	r.Use(Tracing)
	r.Use(RequestLogger(logger))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	})

	r.Route("/api/realtime", func(r chi.Router) {
		r.Use(RequireAuth(verifier, logger))
		r.Get("/stream", stream.ServeHTTP)
		r.Get("/ws", ws.ServeHTTP)
		r.Post("/publish", publish.ServeHTTP)
		r.Post("/presence", presence.SetStatus)
		r.Get("/presence", presence.Query)
		r.Get("/stats", stats.ServeHTTP)
	})

	return r
}
