package handler

import (
	"context"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/dukerupert/clarus/internal/advisor"
	"github.com/dukerupert/clarus/internal/auth"
	"github.com/dukerupert/clarus/internal/model"
	"github.com/dukerupert/clarus/internal/store"
	"github.com/dukerupert/clarus/internal/websocket"
)

// Chatter produces a model reply for a conversation.
type Chatter interface {
	Chat(ctx context.Context, history []model.ChatMessage, text string) advisor.Reply
}

type ChatHandler struct {
	broadcaster
	store   *store.Store
	advisor Chatter
	logger  *slog.Logger
	now     func() time.Time
}

func NewChatHandler(st *store.Store, adv Chatter, hub *websocket.Hub, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{broadcaster: broadcaster{hub}, store: st, advisor: adv, logger: logger, now: time.Now}
}

func (h *ChatHandler) History(w http.ResponseWriter, r *http.Request) {
	history, err := h.store.ChatHistory(auth.Namespace(r.Context()))
	if err != nil {
		h.logger.Error("get chat history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to get chat history")
		return
	}
	writeJSON(w, http.StatusOK, history)
}

// Replace overwrites the whole conversation.
func (h *ChatHandler) Replace(w http.ResponseWriter, r *http.Request) {
	var history []model.ChatMessage
	if !decodeJSON(w, r, &history) {
		return
	}
	for _, m := range history {
		if m.Role != model.RoleUser && m.Role != model.RoleModel {
			writeError(w, http.StatusBadRequest, "role must be user or model")
			return
		}
	}
	if history == nil {
		history = []model.ChatMessage{}
	}

	ns := auth.Namespace(r.Context())
	if err := h.store.SaveChatHistory(ns, history); err != nil {
		h.logger.Error("save chat history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save chat history")
		return
	}

	h.broadcast(ns, "chat", "replaced", "")
	writeJSON(w, http.StatusOK, history)
}

type chatTurn struct {
	User  model.ChatMessage `json:"user"`
	Reply model.ChatMessage `json:"reply"`
}

// Send runs one conversational turn and persists both messages.
func (h *ChatHandler) Send(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Text string `json:"text"`
	}
	if !decodeJSON(w, r, &req) {
		return
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		writeError(w, http.StatusBadRequest, "text is required")
		return
	}

	ns := auth.Namespace(r.Context())
	history, err := h.store.ChatHistory(ns)
	if err != nil {
		h.logger.Error("get chat history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to send message")
		return
	}

	userMsg := model.ChatMessage{
		ID:        newID(),
		Role:      model.RoleUser,
		Text:      text,
		Timestamp: h.now().UnixMilli(),
	}
	reply := h.advisor.Chat(r.Context(), history, text)
	modelMsg := model.ChatMessage{
		ID:        newID(),
		Role:      model.RoleModel,
		Text:      reply.Text,
		IsRisk:    reply.Risk,
		Timestamp: h.now().UnixMilli(),
	}

	if _, err := h.store.AppendChatMessages(ns, userMsg, modelMsg); err != nil {
		h.logger.Error("save chat history", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to save message")
		return
	}

	h.broadcast(ns, "chat", "created", modelMsg.ID)
	writeJSON(w, http.StatusCreated, chatTurn{User: userMsg, Reply: modelMsg})
}
