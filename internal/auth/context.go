package auth

import (
	"context"

	"github.com/dukerupert/clarus/internal/model"
	"github.com/dukerupert/clarus/internal/store"
)

type contextKey struct{}

// Identity is the caller resolved for a request.
type Identity struct {
	User    *model.User // nil for guests
	Session string
}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// User returns the signed-in user, or nil for guests.
func User(ctx context.Context) *model.User {
	id, ok := FromContext(ctx)
	if !ok {
		return nil
	}
	return id.User
}

// Namespace returns the storage namespace of the caller.
func Namespace(ctx context.Context) store.Namespace {
	return store.NamespaceFor(User(ctx))
}
