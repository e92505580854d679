package websocket

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/clarus/internal/auth"
)

// HandleWebSocket upgrades the request and subscribes it to the caller's
// namespace change feed.
func HandleWebSocket(hub *Hub, originPatterns []string, logger *slog.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := ws.Accept(w, r, &ws.AcceptOptions{
			OriginPatterns:     originPatterns,
			InsecureSkipVerify: len(originPatterns) == 0,
		})
		if err != nil {
			logger.Warn("accept", "error", err)
			return
		}

		ns := auth.Namespace(r.Context())
		logger.Debug("client connected", "namespace", string(ns))
		NewClient(hub, conn, ns).Run(r.Context())
	}
}
