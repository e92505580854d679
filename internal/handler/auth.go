package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/clarus/internal/auth"
	"github.com/dukerupert/clarus/internal/store"
)

type AuthHandler struct {
	sessions *auth.Sessions
	store    *store.Store
	logger   *slog.Logger
}

func NewAuthHandler(sessions *auth.Sessions, st *store.Store, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{sessions: sessions, store: st, logger: logger}
}

// Login signs in the mock account and seeds its namespace.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	sess, err := h.sessions.Login()
	if err != nil {
		h.logger.Error("create session", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}
	if err := h.store.EnsureSeeded(store.NamespaceFor(&sess.User)); err != nil {
		h.logger.Error("seed namespace", "user_id", sess.User.ID, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to sign in")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		Secure:   r.TLS != nil,
	})
	h.logger.Info("user signed in", "user_id", sess.User.ID)
	writeJSON(w, http.StatusOK, sess.User)
}

func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if id, ok := auth.FromContext(r.Context()); ok && id.Session != "" {
		if err := h.sessions.Logout(id.Session); err != nil {
			h.logger.Error("delete session", "error", err)
			writeError(w, http.StatusInternalServerError, "failed to sign out")
			return
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
	})
	w.WriteHeader(http.StatusNoContent)
}

func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	u := auth.User(r.Context())
	if u == nil {
		writeError(w, http.StatusUnauthorized, "not signed in")
		return
	}
	writeJSON(w, http.StatusOK, u)
}
