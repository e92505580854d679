package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/dukerupert/clarus/internal/auth"
	"github.com/dukerupert/clarus/internal/model"
	"github.com/dukerupert/clarus/internal/store"
	"github.com/dukerupert/clarus/internal/websocket"
)

const (
	defaultRelation    = "Family"
	defaultMemberColor = "bg-indigo-500"
)

type FamilyMemberHandler struct {
	broadcaster
	store  *store.Store
	logger *slog.Logger
}

func NewFamilyMemberHandler(st *store.Store, hub *websocket.Hub, logger *slog.Logger) *FamilyMemberHandler {
	return &FamilyMemberHandler{broadcaster: broadcaster{hub}, store: st, logger: logger}
}

func (h *FamilyMemberHandler) List(w http.ResponseWriter, r *http.Request) {
	members, err := h.store.FamilyMembers(auth.Namespace(r.Context()))
	if err != nil {
		h.logger.Error("list family members", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list family members")
		return
	}
	writeJSON(w, http.StatusOK, members)
}

func (h *FamilyMemberHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.FamilyMember
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
	if req.Relation == "" {
		req.Relation = defaultRelation
	}
	if req.Color == "" {
		req.Color = defaultMemberColor
	}
	if req.AvatarText == "" {
		req.AvatarText = avatarText(req.Name)
	}

	ns := auth.Namespace(r.Context())
	members, err := h.store.AddFamilyMember(ns, req)
	if err != nil {
		h.logger.Error("add family member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add family member")
		return
	}

	h.broadcast(ns, "family_member", "created", req.ID)
	writeJSON(w, http.StatusCreated, members)
}

// Update shallow-merges the provided fields. An unknown id is a 404 and
// leaves the list untouched.
func (h *FamilyMemberHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	ns := auth.Namespace(r.Context())

	existing, err := h.store.FamilyMember(ns, id)
	if err != nil {
		h.logger.Error("get family member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get family member")
		return
	}
	if existing == nil {
		writeError(w, http.StatusNotFound, "family member not found")
		return
	}

	var req model.FamilyMemberUpdate
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			writeError(w, http.StatusBadRequest, "name cannot be empty")
			return
		}
		req.Name = &name
	}

	members, err := h.store.UpdateFamilyMember(ns, id, req)
	if err != nil {
		h.logger.Error("update family member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to update family member")
		return
	}

	h.broadcast(ns, "family_member", "updated", id)
	writeJSON(w, http.StatusOK, members)
}
