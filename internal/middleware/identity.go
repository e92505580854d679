package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/dukerupert/clarus/internal/auth"
)

// ResolveIdentity attaches the caller's identity to the request context. A
// missing, unknown or expired session cookie resolves to the guest.
func ResolveIdentity(sessions *auth.Sessions, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := auth.Identity{}

			if cookie, err := r.Cookie(auth.SessionCookie); err == nil && cookie.Value != "" {
				sess, err := sessions.Lookup(cookie.Value)
				switch {
				case err == nil:
					u := sess.User
					id = auth.Identity{User: &u, Session: sess.Token}
				case errors.Is(err, auth.ErrNoSession):
					http.SetCookie(w, &http.Cookie{Name: auth.SessionCookie, Value: "", Path: "/", MaxAge: -1})
				default:
					logger.Error("session lookup", "error", err)
				}
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}
