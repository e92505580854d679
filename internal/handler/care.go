package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/clarus/internal/auth"
	"github.com/dukerupert/clarus/internal/model"
	"github.com/dukerupert/clarus/internal/store"
	"github.com/dukerupert/clarus/internal/websocket"
)

const (
	defaultCaregiverColor = "bg-teal-500"
	defaultAuthorID       = "me"
	defaultAuthorName     = "Me"
)

type CareHandler struct {
	broadcaster
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewCareHandler(st *store.Store, hub *websocket.Hub, logger *slog.Logger) *CareHandler {
	return &CareHandler{broadcaster: broadcaster{hub}, store: st, logger: logger, now: time.Now}
}

func (h *CareHandler) ListTeam(w http.ResponseWriter, r *http.Request) {
	team, err := h.store.CareTeam(auth.Namespace(r.Context()))
	if err != nil {
		h.logger.Error("list care team", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list care team")
		return
	}
	writeJSON(w, http.StatusOK, team)
}

func (h *CareHandler) AddCaregiver(w http.ResponseWriter, r *http.Request) {
	var req model.Caregiver
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.ID == "" {
		req.ID = newID()
	}
	if req.Initials == "" {
		req.Initials = initialsOf(req.Name)
	}
	if req.Color == "" {
		req.Color = defaultCaregiverColor
	}

	ns := auth.Namespace(r.Context())
	team, err := h.store.AddCaregiver(ns, req)
	if err != nil {
		h.logger.Error("add caregiver", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add caregiver")
		return
	}

	h.broadcast(ns, "caregiver", "created", req.ID)
	writeJSON(w, http.StatusCreated, team)
}

func (h *CareHandler) ListNotes(w http.ResponseWriter, r *http.Request) {
	notes, err := h.store.SharedNotes(auth.Namespace(r.Context()))
	if err != nil {
		h.logger.Error("list shared notes", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list notes")
		return
	}
	writeJSON(w, http.StatusOK, notes)
}

// AddNote posts a note to the shared feed, newest first.
func (h *CareHandler) AddNote(w http.ResponseWriter, r *http.Request) {
	var req model.SharedNote
	if !decodeJSON(w, r, &req) {
		return
	}
	req.Text = strings.TrimSpace(req.Text)
	if req.Text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.ID == "" {
		req.ID = newID()
	}
	if req.AuthorID == "" {
		req.AuthorID = defaultAuthorID
	}
	if req.AuthorName == "" {
		req.AuthorName = defaultAuthorName
	}
	if req.Date == "" {
		req.Date = today(h.now())
	}

	ns := auth.Namespace(r.Context())
	notes, err := h.store.AddSharedNote(ns, req)
	if err != nil {
		h.logger.Error("add shared note", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add note")
		return
	}

	h.broadcast(ns, "note", "created", req.ID)
	writeJSON(w, http.StatusCreated, notes)
}

// initialsOf takes the first letter of up to two words.
func initialsOf(name string) string {
	var out []rune
	for _, f := range strings.Fields(name) {
		out = append(out, []rune(f)[0])
		if len(out) == 2 {
			break
		}
	}
	return strings.ToUpper(string(out))
}
