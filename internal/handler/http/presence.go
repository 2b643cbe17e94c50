package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fieldworks/realtime-service/internal/domain/apperr"
	"github.com/fieldworks/realtime-service/internal/domain/presence"
	"github.com/fieldworks/realtime-service/internal/service"
)

type PresenceHandler struct {
	presencer service.Presencer
}

func NewPresenceHandler(presencer service.Presencer) *PresenceHandler {
	return &PresenceHandler{presencer: presencer}
}

// presenceView renders a record with a null last-seen for users never seen,
// instead of the zero time.
type presenceView struct {
	UserID   string     `json:"user_id"`
	Status   string     `json:"status"`
	LastSeen *time.Time `json:"last_seen"`
}

func viewOf(rec presence.Record) presenceView {
	v := presenceView{UserID: rec.UserID, Status: string(rec.Status)}
	if !rec.LastSeen.IsZero() {
		ls := rec.LastSeen
		v.LastSeen = &ls
	}
	return v
}

type setStatusRequest struct {
	Status string `json:"status"`
}

type setStatusResponse struct {
	Success  bool         `json:"success"`
	Presence presenceView `json:"presence"`
	Event    struct {
		Type      string `json:"type"`
		UserID    string `json:"user_id"`
		Status    string `json:"status"`
		Timestamp int64  `json:"timestamp"`
	} `json:"event"`
}

// SetStatus updates the caller's own presence. The single-writer invariant
// holds because the user ID always comes from the verified identity, never
// from the body.
func (h *PresenceHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	ident, ok := IdentityFrom(r.Context())
	if !ok {
		writeError(w, apperr.ErrUnauthenticated)
		return
	}

	var req setStatusRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, fmt.Errorf("%w: malformed body: %w", apperr.ErrInvalidArgument, err))
		return
	}

	rec, err := h.presencer.SetStatus(r.Context(), ident, req.Status)
	if err != nil {
		writeError(w, err)
		return
	}

	resp := setStatusResponse{Success: true, Presence: viewOf(rec)}
	resp.Event.Type = "presence_changed"
	resp.Event.UserID = rec.UserID
	resp.Event.Status = string(rec.Status)
	resp.Event.Timestamp = rec.LastSeen.UnixMilli()
	writeJSON(w, http.StatusOK, resp)
}

type queryResponse struct {
	Success bool           `json:"success"`
	Online  int            `json:"online"`
	Users   []presenceView `json:"users"`
}

// Query returns presence for the comma-separated `users` filter, or every
// tracked record when the filter is absent.
func (h *PresenceHandler) Query(w http.ResponseWriter, r *http.Request) {
	var userIDs []string
	if raw := r.URL.Query().Get("users"); raw != "" {
		for _, id := range strings.Split(raw, ",") {
			if id = strings.TrimSpace(id); id != "" {
				userIDs = append(userIDs, id)
			}
		}
	}

	records, online := h.presencer.Query(r.Context(), userIDs)
	views := make([]presenceView, 0, len(records))
	for _, rec := range records {
		views = append(views, viewOf(rec))
	}

	writeJSON(w, http.StatusOK, queryResponse{Success: true, Online: online, Users: views})
}
