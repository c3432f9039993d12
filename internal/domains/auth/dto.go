package auth

import (
	"strings"

	validation "github.com/go-ozzo/ozzo-validation/v4"
)

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (r LoginRequest) Validate() error {
	return validation.ValidateStruct(&r,
		validation.Field(&r.Username, validation.Required, validation.Length(1, 64)),
		validation.Field(&r.Password, validation.Required, validation.Length(1, 128)),
	)
}

// NormalizedUsername is the form used for account lookup and throttling keys.
func (r LoginRequest) NormalizedUsername() string {
	return strings.ToLower(strings.TrimSpace(r.Username))
}
