package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/bcmedia-dr/doctor-management-system/internal/shared/response"
)

// AdminRequired must run after SessionRequired.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		sess, ok := CurrentSession(c)
		if !ok || !sess.IsAdmin {
			response.Forbidden(c, "Access denied: admin role required")
			c.Abort()
			return
		}

		c.Next()
	}
}
