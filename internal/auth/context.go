package auth

import "context"

// contextKey is a private type for context keys to avoid collisions.
type contextKey string

const userContextKey contextKey = "user"

// WithUser stores the authenticated user in the context.
func WithUser(ctx context.Context, user *User) context.Context {
	if user == nil {
		return ctx
	}
	return context.WithValue(ctx, userContextKey, user)
}

// UserFromContext retrieves the authenticated user from context.
// Returns nil if no user is set.
func UserFromContext(ctx context.Context) *User {
	if ctx == nil {
		return nil
	}
	if u, ok := ctx.Value(userContextKey).(*User); ok {
		return u
	}
	return nil
}
