package auth

import (
	"github.com/workdeskhq/workdesk/internal"
)

type LoginDTO struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

func (dto LoginDTO) Validate() error {
	if dto.Email == "" {
		return internal.NewValidationFieldError("email", "email is required", internal.ErrCodeValidationFailed)
	}
	if dto.Password == "" {
		return internal.NewValidationFieldError("password", "password is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type RefreshDTO struct {
	RefreshToken string `json:"refresh_token"`
}

func (dto RefreshDTO) Validate() error {
	if dto.RefreshToken == "" {
		return internal.NewValidationFieldError("refresh_token", "refresh token is required", internal.ErrCodeValidationFailed)
	}
	return nil
}

type LoginResponse struct {
	AccessToken  string      `json:"access_token"`
	RefreshToken string      `json:"refresh_token"`
	Member       interface{} `json:"member"`
}
