package context

import (
	stdcontext "context"
	"strings"

	"github.com/smallbiznis/revbox/internal/usercontext"
)

type requestIDKey struct{}

// WithRequestID stores the correlation request id.
func WithRequestID(ctx stdcontext.Context, requestID string) stdcontext.Context {
	return stdcontext.WithValue(ctx, requestIDKey{}, strings.TrimSpace(requestID))
}

// RequestIDFromContext returns the request id or an empty string.
func RequestIDFromContext(ctx stdcontext.Context) string {
	if ctx == nil {
		return ""
	}
	if value, ok := ctx.Value(requestIDKey{}).(string); ok {
		return value
	}
	if value, ok := ctx.Value("request_id").(string); ok {
		return strings.TrimSpace(value)
	}
	return ""
}

// UserIDFromContext returns the calling user id or an empty string.
func UserIDFromContext(ctx stdcontext.Context) string {
	userID, _ := usercontext.UserIDFromContext(ctx)
	return userID
}
