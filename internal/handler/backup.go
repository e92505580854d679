package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/clarus/internal/auth"
	"github.com/dukerupert/clarus/internal/backup"
	"github.com/dukerupert/clarus/internal/model"
	"github.com/dukerupert/clarus/internal/store"
	"github.com/dukerupert/clarus/internal/websocket"
)

// Backups is the encrypted snapshot service.
type Backups interface {
	Export(ctx context.Context, ns store.Namespace, passphrase string) (*model.Backup, error)
	List(ctx context.Context, ns store.Namespace) ([]model.Backup, error)
	Restore(ctx context.Context, ns store.Namespace, key, passphrase string) error
	Status(ns store.Namespace) backup.Status
}

type BackupHandler struct {
	broadcaster
	backups Backups
	logger  *slog.Logger
}

func NewBackupHandler(backups Backups, hub *websocket.Hub, logger *slog.Logger) *BackupHandler {
	return &BackupHandler{broadcaster: broadcaster{hub}, backups: backups, logger: logger}
}

func (h *BackupHandler) writeBackupError(w http.ResponseWriter, err error, action string) {
	switch {
	case errors.Is(err, backup.ErrDisabled):
		writeError(w, http.StatusServiceUnavailable, "backups are not configured")
	case errors.Is(err, backup.ErrGuest):
		writeError(w, http.StatusForbidden, "sign in to use backups")
	case errors.Is(err, backup.ErrNoPassphrase):
		writeError(w, http.StatusBadRequest, "passphrase is required")
	case errors.Is(err, backup.ErrDecrypt):
		writeError(w, http.StatusBadRequest, "wrong passphrase or corrupt backup")
	case errors.Is(err, backup.ErrNotFound), errors.Is(err, backup.ErrForeignArchive):
		writeError(w, http.StatusNotFound, "backup not found")
	default:
		h.logger.Error(action, "error", err)
		writeError(w, http.StatusInternalServerError, "failed to "+action)
	}
}

type backupListResponse struct {
	Status  backup.Status  `json:"status"`
	Backups []model.Backup `json:"backups"`
}

func (h *BackupHandler) List(w http.ResponseWriter, r *http.Request) {
	ns := auth.Namespace(r.Context())
	list, err := h.backups.List(r.Context(), ns)
	if err != nil {
		h.writeBackupError(w, err, "list backups")
		return
	}
	writeJSON(w, http.StatusOK, backupListResponse{Status: h.backups.Status(ns), Backups: list})
}

func (h *BackupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Passphrase string `json:"passphrase"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}

	b, err := h.backups.Export(r.Context(), auth.Namespace(r.Context()), req.Passphrase)
	if err != nil {
		h.writeBackupError(w, err, "create backup")
		return
	}
	writeJSON(w, http.StatusCreated, b)
}

func (h *BackupHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Key        string `json:"key"`
		Passphrase string `json:"passphrase"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Key == "" {
		writeError(w, http.StatusBadRequest, "key is required")
		return
	}

	ns := auth.Namespace(r.Context())
	if err := h.backups.Restore(r.Context(), ns, req.Key, req.Passphrase); err != nil {
		h.writeBackupError(w, err, "restore backup")
		return
	}

	h.broadcast(ns, "backup", "restored", req.Key)
	w.WriteHeader(http.StatusNoContent)
}
