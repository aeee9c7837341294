package auth

import (
	"context"

	"github.com/user/imobiliaria-go/users"
)

// contextKey is a custom type for context keys, so keys from other packages cannot collide.
type contextKey string

const userContextKey contextKey = "auth_user"

// NewContextWithUser returns a child context carrying the resolved user.
func NewContextWithUser(ctx context.Context, u *users.User) context.Context {
	return context.WithValue(ctx, userContextKey, u)
}

// UserFromContext returns the user stored by the Guard, or nil for anonymous requests.
func UserFromContext(ctx context.Context) *users.User {
	u, _ := ctx.Value(userContextKey).(*users.User)
	return u
}
