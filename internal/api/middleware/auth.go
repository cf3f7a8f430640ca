package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"recipe-scanner/internal/pkg/common"
)

// UserIDKey is the gin context key the authenticated user ID is stored under.
const UserIDKey = "user_id"

// UserAuth requires an X-User-ID header and puts its value on the context.
// Identity verification happens upstream at the gateway; this service only
// scopes data access by the forwarded ID.
func UserAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		userID := c.GetHeader("X-User-ID")
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "missing X-User-ID header",
				"code":  common.ErrCodeUnauthorized,
			})
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

// UserID returns the authenticated user ID from the context, or "" when the
// route is not behind UserAuth.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
