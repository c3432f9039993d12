package middleware

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/bcmedia-dr/doctor-management-system/internal/domains/auth"
	"github.com/bcmedia-dr/doctor-management-system/internal/shared/response"
)

const sessionKey = "session"

// SessionRequired resolves the session cookie and stores the session in the
// gin context. Requests without a live session get 401.
func SessionRequired(svc auth.Service, cookieName string) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := c.Cookie(cookieName)
		if err != nil || token == "" {
			response.Unauthorized(c, "Please log in first")
			c.Abort()
			return
		}

		sess, err := svc.Authenticate(c.Request.Context(), token)
		if err != nil {
			if !errors.Is(err, auth.ErrInvalidSession) {
				log.Error().Err(err).Msg("session lookup failed")
				response.InternalServerError(c, "Internal server error")
				c.Abort()
				return
			}
			response.Unauthorized(c, "Please log in first")
			c.Abort()
			return
		}

		c.Set(sessionKey, sess)
		c.Next()
	}
}

// CurrentSession returns the session set by SessionRequired.
func CurrentSession(c *gin.Context) (*auth.Session, bool) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return nil, false
	}
	sess, ok := v.(*auth.Session)
	return sess, ok
}
