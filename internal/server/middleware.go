package server

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/smallbiznis/revbox/internal/usercontext"
)

const (
	HeaderUserID     = "X-User-Id"
	contextUserIDKey = "user_id"
)

// UserContext copies the gateway-authenticated caller into the request
// context. Requests without the header proceed anonymously.
func UserContext() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := strings.TrimSpace(c.GetHeader(HeaderUserID))
		if userID != "" {
			c.Set(contextUserIDKey, userID)
			c.Request = c.Request.WithContext(usercontext.WithUserID(c.Request.Context(), userID))
		}
		c.Next()
	}
}
