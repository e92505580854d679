package handler

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/clarus/internal/adherence"
	"github.com/dukerupert/clarus/internal/auth"
	"github.com/dukerupert/clarus/internal/model"
	"github.com/dukerupert/clarus/internal/store"
	"github.com/dukerupert/clarus/internal/websocket"
)

var validDoseStatuses = map[string]bool{
	model.DoseTaken:   true,
	model.DoseSkipped: true,
	model.DosePending: true,
}

type MedicationHandler struct {
	broadcaster
	store  *store.Store
	logger *slog.Logger
	now    func() time.Time
}

func NewMedicationHandler(st *store.Store, hub *websocket.Hub, logger *slog.Logger) *MedicationHandler {
	return &MedicationHandler{broadcaster: broadcaster{hub}, store: st, logger: logger, now: time.Now}
}

// List returns medications, filtered by the member_id query parameter.
func (h *MedicationHandler) List(w http.ResponseWriter, r *http.Request) {
	meds, err := h.store.Medications(auth.Namespace(r.Context()), r.URL.Query().Get("member_id"))
	if err != nil {
		h.logger.Error("list medications", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list medications")
		return
	}
	writeJSON(w, http.StatusOK, meds)
}

// createMedicationRequest distinguishes an omitted active flag from false.
type createMedicationRequest struct {
	model.Medication
	Active *bool `json:"active"`
}

// Create adds a medication. It is active unless the body says otherwise.
func (h *MedicationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var body createMedicationRequest
	if !decodeJSON(w, r, &body) {
		return
	}
	req := body.Medication
	req.Active = body.Active == nil || *body.Active

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}
	if req.MemberID == "" {
		writeError(w, http.StatusBadRequest, "memberId is required")
		return
	}

	ns := auth.Namespace(r.Context())
	member, err := h.store.FamilyMember(ns, req.MemberID)
	if err != nil {
		h.logger.Error("get family member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add medication")
		return
	}
	if member == nil {
		writeError(w, http.StatusBadRequest, "unknown family member")
		return
	}
	if req.ID == "" {
		req.ID = newID()
	}

	meds, err := h.store.AddMedication(ns, req)
	if err != nil {
		h.logger.Error("add medication", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to add medication")
		return
	}

	h.broadcast(ns, "medication", "created", req.ID)
	writeJSON(w, http.StatusCreated, meds)
}

// Today lists medications with today's dose status and recent adherence,
// filtered by the member_id query parameter.
func (h *MedicationHandler) Today(w http.ResponseWriter, r *http.Request) {
	ns := auth.Namespace(r.Context())
	meds, err := h.store.Medications(ns, r.URL.Query().Get("member_id"))
	if err != nil {
		h.logger.Error("list medications", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list medications")
		return
	}
	logs, err := h.store.MedicationLogs(ns, "")
	if err != nil {
		h.logger.Error("list medication logs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list medication logs")
		return
	}
	writeJSON(w, http.StatusOK, adherence.Today(meds, logs, h.now()))
}

func (h *MedicationHandler) findMedication(ns store.Namespace, id string) (*model.Medication, error) {
	meds, err := h.store.Medications(ns, "")
	if err != nil {
		return nil, err
	}
	for _, m := range meds {
		if m.ID == id {
			return &m, nil
		}
	}
	return nil, nil
}

func (h *MedicationHandler) ListLogs(w http.ResponseWriter, r *http.Request) {
	logs, err := h.store.MedicationLogs(auth.Namespace(r.Context()), r.PathValue("id"))
	if err != nil {
		h.logger.Error("list medication logs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to list medication logs")
		return
	}
	writeJSON(w, http.StatusOK, logs)
}

// CreateLog records a dose for the medication in the path. Date defaults to today.
func (h *MedicationHandler) CreateLog(w http.ResponseWriter, r *http.Request) {
	ns := auth.Namespace(r.Context())
	medID := r.PathValue("id")

	med, err := h.findMedication(ns, medID)
	if err != nil {
		h.logger.Error("get medication", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record dose")
		return
	}
	if med == nil {
		writeError(w, http.StatusNotFound, "medication not found")
		return
	}

	var req struct {
		Date   string `json:"date"`
		Status string `json:"status"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if !validDoseStatuses[req.Status] {
		writeError(w, http.StatusBadRequest, "status must be taken, skipped, or pending")
		return
	}

	now := h.now()
	if req.Date == "" {
		req.Date = today(now)
	} else if _, err := time.Parse(time.DateOnly, req.Date); err != nil {
		writeError(w, http.StatusBadRequest, "date must be YYYY-MM-DD")
		return
	}

	entry := model.MedicationLog{
		ID:           newID(),
		MedicationID: medID,
		Date:         req.Date,
		Status:       req.Status,
		Timestamp:    now.UnixMilli(),
	}
	if _, err := h.store.AddMedicationLog(ns, entry); err != nil {
		h.logger.Error("add medication log", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record dose")
		return
	}

	logs, err := h.store.MedicationLogs(ns, medID)
	if err != nil {
		h.logger.Error("list medication logs", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to record dose")
		return
	}

	h.broadcast(ns, "medication_log", "created", entry.ID)
	writeJSON(w, http.StatusCreated, logs)
}
