package usercontext

import (
	"context"
	"strings"
)

// UserContextKey is the request context key for the calling user.
type UserContextKey struct{}

// WithUserID stores the authenticated user ID in the context.
func WithUserID(ctx context.Context, userID string) context.Context {
	return context.WithValue(ctx, UserContextKey{}, strings.TrimSpace(userID))
}

// UserIDFromContext returns the user ID from context, if set.
func UserIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}

	if value, ok := ctx.Value(UserContextKey{}).(string); ok && value != "" {
		return value, true
	}

	// gin.Context resolves string keys through its own key store.
	if value, ok := ctx.Value("user_id").(string); ok {
		value = strings.TrimSpace(value)
		if value != "" {
			return value, true
		}
	}
	return "", false
}
