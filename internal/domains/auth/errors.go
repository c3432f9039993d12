package auth

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/rs/zerolog/log"

	"github.com/bcmedia-dr/doctor-management-system/internal/shared/response"
)

var (
	ErrInvalidCredentials = errors.New("invalid username or password")
	ErrTooManyAttempts    = errors.New("too many login attempts, please try again later")
	ErrInvalidSession     = errors.New("session is missing or expired")
)

var authErrorMap = map[error]struct {
	Status  int
	Code    string
	Message string
}{
	ErrInvalidCredentials: {
		Status:  http.StatusUnauthorized,
		Code:    "INVALID_CREDENTIALS",
		Message: "Invalid username or password",
	},
	ErrTooManyAttempts: {
		Status:  http.StatusTooManyRequests,
		Code:    "TOO_MANY_ATTEMPTS",
		Message: "Too many failed login attempts, try again in 15 minutes",
	},
	ErrInvalidSession: {
		Status:  http.StatusUnauthorized,
		Code:    "SESSION_REQUIRED",
		Message: "Please log in first",
	},
}

// HandleAuthError writes the mapped response for err and reports whether
// anything was written.
func HandleAuthError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	var verrs validation.Errors
	if errors.As(err, &verrs) {
		response.ValidationError(c, verrs)
		return true
	}

	for target, mapped := range authErrorMap {
		if errors.Is(err, target) {
			response.ErrorResponse(c, mapped.Status, mapped.Code, mapped.Message)
			return true
		}
	}

	log.Error().Err(err).Str("path", c.FullPath()).Msg("auth request failed")
	response.InternalServerError(c, "Internal server error")
	return true
}
