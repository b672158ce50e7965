package member

import (
	"github.com/workdeskhq/workdesk/internal"
	"github.com/workdeskhq/workdesk/internal/permissions"
)

// CreateMemberDTO is the admin request payload for adding a member.
type CreateMemberDTO struct {
	Name            string           `json:"name"`
	Email           string           `json:"email"`
	Role            permissions.Role `json:"role"`
	Department      string           `json:"department"`
	ReportsTo       string           `json:"reports_to"`
	Password        string           `json:"password"`
	ConfirmPassword string           `json:"confirm_password"`
}

func (dto CreateMemberDTO) Validate() error {
	if dto.Name == "" {
		return internal.NewValidationFieldError("name", "name is required", internal.ErrCodeValidationFailed)
	}
	if dto.Email == "" {
		return internal.NewValidationFieldError("email", "email is required", internal.ErrCodeValidationFailed)
	}
	if !permissions.IsValidRole(dto.Role) {
		return internal.NewValidationFieldError("role", "unknown role", internal.ErrCodeValidationFailed)
	}
	if dto.Password != "" && dto.Password != dto.ConfirmPassword {
		return internal.NewValidationFieldError("confirm_password", "passwords do not match", internal.ErrCodeValidationFailed)
	}
	return nil
}

// UpdateMemberDTO carries self-edit or admin-edit changes. Empty fields are
// left untouched.
type UpdateMemberDTO struct {
	Name            string           `json:"name"`
	Role            permissions.Role `json:"role"`
	Department      string           `json:"department"`
	ReportsTo       string           `json:"reports_to"`
	Password        string           `json:"password"`
	ConfirmPassword string           `json:"confirm_password"`
}

func (dto UpdateMemberDTO) Validate() error {
	if dto.Role != "" && !permissions.IsValidRole(dto.Role) {
		return internal.NewValidationFieldError("role", "unknown role", internal.ErrCodeValidationFailed)
	}
	if dto.Password != "" && dto.Password != dto.ConfirmPassword {
		return internal.NewValidationFieldError("confirm_password", "passwords do not match", internal.ErrCodeValidationFailed)
	}
	return nil
}
