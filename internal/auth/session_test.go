package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/dukerupert/clarus/internal/model"
	"github.com/dukerupert/clarus/internal/store"
)

func setupSessions(t *testing.T) (*Sessions, *store.MemoryMedium) {
	t.Helper()
	m := store.NewMemoryMedium()
	user := model.User{ID: "google_1029384756", Name: "Jane Doe", Email: "jane.doe@gmail.com"}
	return NewSessions(m, user, time.Hour), m
}

func TestLoginLookupLogout(t *testing.T) {
	s, _ := setupSessions(t)

	sess, err := s.Login()
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if sess.Token == "" {
		t.Fatal("expected token")
	}
	if sess.User.Avatar != "JD" {
		t.Errorf("avatar = %q, want JD", sess.User.Avatar)
	}

	got, err := s.Lookup(sess.Token)
	if err != nil {
		t.Fatalf("lookup: %v", err)
	}
	if got.User.ID != "google_1029384756" {
		t.Errorf("user = %+v", got.User)
	}

	if err := s.Logout(sess.Token); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := s.Lookup(sess.Token); !errors.Is(err, ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
}

func TestLoginIssuesDistinctTokens(t *testing.T) {
	s, _ := setupSessions(t)
	a, _ := s.Login()
	b, _ := s.Login()
	if a.Token == b.Token {
		t.Error("expected distinct tokens")
	}
}

func TestLookupExpired(t *testing.T) {
	s, m := setupSessions(t)
	sess, _ := s.Login()

	s.now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	if _, err := s.Lookup(sess.Token); !errors.Is(err, ErrNoSession) {
		t.Errorf("err = %v, want ErrNoSession", err)
	}
	if _, ok, _ := m.Get(sessionKeyPrefix + sess.Token); ok {
		t.Error("expired session should be removed")
	}
}

func TestLookupUnknownAndCorrupt(t *testing.T) {
	s, m := setupSessions(t)
	if _, err := s.Lookup(""); !errors.Is(err, ErrNoSession) {
		t.Errorf("empty token err = %v", err)
	}
	if _, err := s.Lookup("nope"); !errors.Is(err, ErrNoSession) {
		t.Errorf("unknown token err = %v", err)
	}
	m.Set(sessionKeyPrefix+"bad", "{")
	if _, err := s.Lookup("bad"); !errors.Is(err, ErrNoSession) {
		t.Errorf("corrupt session err = %v", err)
	}
}

func TestSessionsOutsideUserNamespaces(t *testing.T) {
	s, m := setupSessions(t)
	s.Login()
	keys, _ := m.Keys(store.NamespaceFor(&model.User{ID: "google_1029384756"}).Prefix())
	if len(keys) != 0 {
		t.Errorf("session leaked into user namespace: %v", keys)
	}
}

func TestInitials(t *testing.T) {
	tests := map[string]string{"Jane Doe": "JD", "Cher": "C", "": "", "Mary Ann Smith": "MA"}
	for in, want := range tests {
		if got := initials(in); got != want {
			t.Errorf("initials(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestDeleteExpired(t *testing.T) {
	s, m := setupSessions(t)
	old, _ := s.Login()
	s.now = func() time.Time { return time.Now().Add(DefaultSessionTTL + time.Hour) }
	fresh, _ := s.Login()
	m.Set(sessionKeyPrefix+"bad", "{")

	n, err := s.DeleteExpired()
	if err != nil {
		t.Fatalf("DeleteExpired: %v", err)
	}
	if n != 2 {
		t.Errorf("removed = %d, want 2", n)
	}
	if _, ok, _ := m.Get(sessionKeyPrefix + old.Token); ok {
		t.Error("expired session still stored")
	}
	if _, err := s.Lookup(fresh.Token); err != nil {
		t.Errorf("fresh session lookup: %v", err)
	}
}
