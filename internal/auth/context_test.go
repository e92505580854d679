package auth

import (
	"context"
	"testing"

	"github.com/dukerupert/clarus/internal/model"
	"github.com/dukerupert/clarus/internal/store"
)

func TestWithIdentityAndFromContext(t *testing.T) {
	u := &model.User{ID: "google_1", Name: "Jane Doe"}
	ctx := WithIdentity(context.Background(), Identity{User: u, Session: "tok"})

	got, ok := FromContext(ctx)
	if !ok {
		t.Fatal("expected Identity in context")
	}
	if got.User.ID != "google_1" {
		t.Errorf("User.ID = %q, want google_1", got.User.ID)
	}
	if got.Session != "tok" {
		t.Errorf("Session = %q, want tok", got.Session)
	}
	if Namespace(ctx) != "google_1" {
		t.Errorf("Namespace = %q, want google_1", Namespace(ctx))
	}
}

func TestFromContextMissing(t *testing.T) {
	if _, ok := FromContext(context.Background()); ok {
		t.Error("expected false for missing Identity")
	}
	if User(context.Background()) != nil {
		t.Error("expected nil user")
	}
	if Namespace(context.Background()) != store.Guest {
		t.Errorf("Namespace = %q, want guest", Namespace(context.Background()))
	}
}

func TestGuestIdentity(t *testing.T) {
	ctx := WithIdentity(context.Background(), Identity{})
	if Namespace(ctx) != store.Guest {
		t.Errorf("Namespace = %q, want guest", Namespace(ctx))
	}
}
