package handler

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/clarus/internal/store"
	"github.com/dukerupert/clarus/internal/websocket"
)

const maxJSONBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// decodeJSON reads a bounded JSON body into v.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxJSONBody)).Decode(v)
	if err == nil {
		return true
	}
	var tooLarge *http.MaxBytesError
	switch {
	case errors.As(err, &tooLarge):
		writeError(w, http.StatusRequestEntityTooLarge, "request body too large")
	case errors.Is(err, io.EOF):
		writeError(w, http.StatusBadRequest, "request body is empty")
	default:
		writeError(w, http.StatusBadRequest, "invalid JSON")
	}
	return false
}

func newID() string {
	return uuid.NewString()
}

func today(now time.Time) string {
	return now.Format(time.DateOnly)
}

// avatarText is the first two letters of name, upper-cased.
func avatarText(name string) string {
	r := []rune(strings.TrimSpace(name))
	if len(r) > 2 {
		r = r[:2]
	}
	return strings.ToUpper(string(r))
}

// broadcaster publishes change notifications to one namespace's clients.
type broadcaster struct {
	hub *websocket.Hub
}

func (b broadcaster) broadcast(ns store.Namespace, entity, action, id string) {
	if b.hub != nil {
		b.hub.Broadcast(ns, websocket.NewMessage(entity, action, id, nil))
	}
}
