package handler

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/dukerupert/clarus/internal/auth"
	"github.com/dukerupert/clarus/internal/model"
	"github.com/dukerupert/clarus/internal/store"
	"github.com/dukerupert/clarus/internal/websocket"
)

var validWellnessTypes = map[model.WellnessType]bool{
	model.WellnessBreathing: true,
	model.WellnessGratitude: true,
	model.WellnessGrounding: true,
}

type WellnessHandler struct {
	broadcaster
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewWellnessHandler(st *store.Store, hub *websocket.Hub, logger *slog.Logger) *WellnessHandler {
	return &WellnessHandler{broadcaster: broadcaster{hub}, store: st, logger: logger, now: time.Now}
}

func (h *WellnessHandler) List(w http.ResponseWriter, r *http.Request) {
	logs, err := h.store.WellnessLogs(auth.Namespace(r.Context()))
	if err != nil {
		h.logger.Error("list wellness logs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list wellness sessions")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

func (h *WellnessHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.WellnessSession
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validWellnessTypes[req.Type] {
		writeError(w, http.StatusBadRequest, "type must be breathing, gratitude, or grounding")
		return
	}
	if req.Points < 0 {
		writeError(w, http.StatusBadRequest, "points cannot be negative")
		return
	}
	if req.ID == "" {
		req.ID = newID()
	}
	if req.Timestamp == 0 {
		req.Timestamp = h.now().UnixMilli()
	}

	ns := auth.Namespace(r.Context())
	logs, err := h.store.AddWellnessLog(ns, req)
	if err != nil {
		h.logger.Error("add wellness log", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record session")
		return
	}

	h.broadcast(ns, "wellness", "created", req.ID)
	writeJSON(w, http.StatusCreated, logs)
}

func (h *WellnessHandler) Points(w http.ResponseWriter, r *http.Request) {
	points, err := h.store.CalmPoints(auth.Namespace(r.Context()))
	if err != nil {
		h.logger.Error("calm points", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get calm points")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"points": points})
}
