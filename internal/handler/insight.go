package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/dukerupert/clarus/internal/advisor"
	"github.com/dukerupert/clarus/internal/auth"
	"github.com/dukerupert/clarus/internal/model"
	"github.com/dukerupert/clarus/internal/store"
)

const defaultInsightTopic = "general wellness"

// Advisor is the soft model surface: every call returns usable text.
type Advisor interface {
	DoctorSummary(ctx context.Context, member model.FamilyMember, history []model.ChatMessage, meds []model.Medication) string
	CheckInteractions(ctx context.Context, meds []model.Medication, allergies []string) string
	FastInsight(ctx context.Context, topic string) string
	Speak(ctx context.Context, text string, style advisor.SpeechStyle) *advisor.Audio
}

type InsightHandler struct {
	store   *store.Store
	advisor Advisor
	logger  *slog.Logger
}

func NewInsightHandler(st *store.Store, adv Advisor, logger *slog.Logger) *InsightHandler {
	return &InsightHandler{store: st, advisor: adv, logger: logger}
}

// memberContext loads a member and all of their medications. It writes the
// error response itself and returns ok=false when the caller should stop.
func (h *InsightHandler) memberContext(w http.ResponseWriter, r *http.Request) (*model.FamilyMember, []model.Medication, bool) {
	ns := auth.Namespace(r.Context())
	id := r.PathValue("id")

	member, err := h.store.FamilyMember(ns, id)
	if err != nil {
		h.logger.Error("get family member", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load member")
		return nil, nil, false
	}
	if member == nil {
		writeError(w, http.StatusNotFound, "family member not found")
		return nil, nil, false
	}

	meds, err := h.store.Medications(ns, id)
	if err != nil {
		h.logger.Error("list medications", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load medications")
		return nil, nil, false
	}
	return member, meds, true
}

func activeOnly(meds []model.Medication) []model.Medication {
	active := make([]model.Medication, 0, len(meds))
	for _, m := range meds {
		if m.Active {
			active = append(active, m)
		}
	}
	return active
}

func (h *InsightHandler) DoctorSummary(w http.ResponseWriter, r *http.Request) {
	member, meds, ok := h.memberContext(w, r)
	if !ok {
		return
	}
	history, err := h.store.ChatHistory(auth.Namespace(r.Context()))
	if err != nil {
		h.logger.Error("get chat history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to load chat history")
		return
	}
	summary := h.advisor.DoctorSummary(r.Context(), *member, history, activeOnly(meds))
	writeJSON(w, http.StatusOK, map[string]string{"summary": summary})
}

func (h *InsightHandler) Interactions(w http.ResponseWriter, r *http.Request) {
	member, meds, ok := h.memberContext(w, r)
	if !ok {
		return
	}
	result := h.advisor.CheckInteractions(r.Context(), meds, member.Allergies)
	writeJSON(w, http.StatusOK, map[string]string{"result": result})
}

func (h *InsightHandler) Insight(w http.ResponseWriter, r *http.Request) {
	topic := strings.TrimSpace(r.URL.Query().Get("topic"))
	if topic == "" {
		topic = defaultInsightTopic
	}
	writeJSON(w, http.StatusOK, map[string]string{"insight": h.advisor.FastInsight(r.Context(), topic)})
}

// Speech synthesizes text as a WAV file. No audio is a 204, never an error.
func (h *InsightHandler) Speech(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text  string              `json:"text"`
		Style advisor.SpeechStyle `json:"style"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	if strings.TrimSpace(req.Text) == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}
	if req.Style == "" {
		req.Style = advisor.StyleNormal
	}
	if req.Style != advisor.StyleNormal && req.Style != advisor.StyleCalm {
		writeError(w, http.StatusBadRequest, "style must be normal or calm")
		return
	}

	audio := h.advisor.Speak(r.Context(), req.Text, req.Style)
	if audio == nil {
		w.WriteHeader(http.StatusNoContent)
		return
	}
	wav := audio.WAV()
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(wav)))
	w.WriteHeader(http.StatusOK)
	w.Write(wav)
}
