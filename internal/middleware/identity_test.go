package middleware

import (
	"bytes"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dukerupert/clarus/internal/auth"
	"github.com/dukerupert/clarus/internal/model"
	"github.com/dukerupert/clarus/internal/store"
)

func setupSessions(t *testing.T) *auth.Sessions {
	t.Helper()
	return auth.NewSessions(store.NewMemoryMedium(), model.User{ID: "google_1", Name: "Jane Doe"}, time.Hour)
}

func namespaceEcho() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(auth.Namespace(r.Context())))
	})
}

func TestResolveIdentityNoCookie(t *testing.T) {
	h := ResolveIdentity(setupSessions(t), slog.New(slog.NewTextHandler(io.Discard, nil)))(namespaceEcho())

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/chat", nil))

	if rec.Body.String() != "guest" {
		t.Errorf("namespace = %q, want guest", rec.Body.String())
	}
}

func TestResolveIdentityValidSession(t *testing.T) {
	sessions := setupSessions(t)
	sess, err := sessions.Login()
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	h := ResolveIdentity(sessions, slog.New(slog.NewTextHandler(io.Discard, nil)))(namespaceEcho())

	req := httptest.NewRequest("GET", "/api/chat", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: sess.Token})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Body.String() != "google_1" {
		t.Errorf("namespace = %q, want google_1", rec.Body.String())
	}
}

func TestResolveIdentityStaleCookie(t *testing.T) {
	h := ResolveIdentity(setupSessions(t), slog.New(slog.NewTextHandler(io.Discard, nil)))(namespaceEcho())

	req := httptest.NewRequest("GET", "/api/chat", nil)
	req.AddCookie(&http.Cookie{Name: auth.SessionCookie, Value: "stale"})
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)

	if rec.Body.String() != "guest" {
		t.Errorf("namespace = %q, want guest", rec.Body.String())
	}
	if !strings.Contains(rec.Header().Get("Set-Cookie"), "Max-Age=0") {
		t.Errorf("expected cookie to be cleared, got %q", rec.Header().Get("Set-Cookie"))
	}
}

func TestRequestLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug}))

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})
	h := ResolveIdentity(setupSessions(t), logger)(RequestLogger(logger)(inner))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest("GET", "/api/missing", nil))

	out := buf.String()
	for _, want := range []string{"level=WARN", "path=/api/missing", "status=404", "namespace=guest"} {
		if !strings.Contains(out, want) {
			t.Errorf("log output missing %q: %s", want, out)
		}
	}
	id := rec.Header().Get(RequestIDHeader)
	if id == "" || !strings.Contains(out, "request_id="+id) {
		t.Errorf("request id %q not logged: %s", id, out)
	}
}

func TestRequestLoggerKeepsIncomingID(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := RequestLogger(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest("GET", "/health", nil)
	req.Header.Set(RequestIDHeader, "abc-123")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	if got := rec.Header().Get(RequestIDHeader); got != "abc-123" {
		t.Errorf("request id = %q, want abc-123", got)
	}
}

func TestNamespaceKey(t *testing.T) {
	req := httptest.NewRequest("GET", "/", nil)
	req.RemoteAddr = "9.9.9.9:1"
	if got := NamespaceKey(req); got != "ip:9.9.9.9" {
		t.Errorf("guest key = %q", got)
	}

	ctx := auth.WithIdentity(req.Context(), auth.Identity{User: &model.User{ID: "u1"}})
	if got := NamespaceKey(req.WithContext(ctx)); got != "ns:u1" {
		t.Errorf("user key = %q", got)
	}
}
