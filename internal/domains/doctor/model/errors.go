package model

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/bcmedia-dr/doctor-management-system/internal/shared/response"
)

var (
	ErrDoctorNotFound  = errors.New("doctor not found")
	ErrDuplicateDoctor = errors.New("doctor already exists")
	ErrInvalidDoctorID = errors.New("invalid doctor id")
)

var doctorErrorMap = map[error]struct {
	Status  int
	Code    string
	Message string
}{
	ErrDoctorNotFound: {
		Status:  http.StatusNotFound,
		Code:    "DOCTOR_NOT_FOUND",
		Message: "The specified doctor does not exist",
	},
	ErrDuplicateDoctor: {
		Status:  http.StatusConflict,
		Code:    "DOCTOR_EXISTS",
		Message: "A doctor with this email is already registered",
	},
	ErrInvalidDoctorID: {
		Status:  http.StatusBadRequest,
		Code:    "INVALID_ID",
		Message: "Doctor id must be a UUID",
	},
}

// HandleDoctorError writes the mapped response for err and reports whether
// anything was written.
func HandleDoctorError(c *gin.Context, err error) bool {
	if err == nil {
		return false
	}

	for target, mapped := range doctorErrorMap {
		if errors.Is(err, target) {
			response.ErrorResponse(c, mapped.Status, mapped.Code, mapped.Message)
			return true
		}
	}

	log.Error().Err(err).Str("path", c.FullPath()).Msg("doctor request failed")
	response.InternalServerError(c, "Internal server error")
	return true
}
