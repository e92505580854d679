package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/clarus/internal/auth"
	"github.com/dukerupert/clarus/internal/store"
	"github.com/dukerupert/clarus/internal/websocket"
)

type ProfileHandler struct {
	broadcaster
	store  *store.Store
	logger *slog.Logger
}

func NewProfileHandler(st *store.Store, hub *websocket.Hub, logger *slog.Logger) *ProfileHandler {
	return &ProfileHandler{broadcaster: broadcaster{hub}, store: st, logger: logger}
}

func (h *ProfileHandler) Onboarding(w http.ResponseWriter, r *http.Request) {
	seen, err := h.store.HasSeenOnboarding(auth.Namespace(r.Context()))
	if err != nil {
		h.logger.Error("get onboarding flag", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get onboarding state")
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"seen": seen})
}

func (h *ProfileHandler) CompleteOnboarding(w http.ResponseWriter, r *http.Request) {
	if err := h.store.CompleteOnboarding(auth.Namespace(r.Context())); err != nil {
		h.logger.Error("complete onboarding", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save onboarding state")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Reset wipes the caller's namespace. Guest data is left alone.
func (h *ProfileHandler) Reset(w http.ResponseWriter, r *http.Request) {
	ns := auth.Namespace(r.Context())
	if err := h.store.ClearAll(ns); err != nil {
		h.logger.Error("reset namespace", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to reset data")
		return
	}
	h.logger.Info("namespace reset", "namespace", ns.Prefix())
	h.broadcast(ns, "profile", "reset", "")
	w.WriteHeader(http.StatusNoContent)
}
