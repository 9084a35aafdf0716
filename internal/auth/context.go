package auth

import (
	"context"

	"github.com/solidario/solidario/internal/model"
)

type contextKey string

const authContextKey contextKey = "auth_context"

// WithAuthContext returns a copy of ctx carrying the authenticated
// caller's identity.
func WithAuthContext(ctx context.Context, ac *model.AuthContext) context.Context {
	return context.WithValue(ctx, authContextKey, ac)
}

// FromContext extracts the authenticated caller from ctx, if any.
func FromContext(ctx context.Context) (*model.AuthContext, bool) {
	ac, ok := ctx.Value(authContextKey).(*model.AuthContext)
	return ac, ok
}
