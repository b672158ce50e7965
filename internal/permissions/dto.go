package permissions

import (
	"github.com/workdeskhq/workdesk/internal"
)

// UpdateRoleConfigDTO is the request payload for editing one role's
// capability set.
type UpdateRoleConfigDTO struct {
	Role         Role          `json:"role"`
	Capabilities CapabilitySet `json:"capabilities"`
}

func (dto UpdateRoleConfigDTO) Validate() error {
	if dto.Role == "" {
		return internal.NewValidationFieldError("role", "role is required", internal.ErrCodeValidationFailed)
	}
	if !IsValidRole(dto.Role) {
		return internal.NewValidationFieldError("role", "unknown role", internal.ErrCodeValidationFailed)
	}
	if dto.Capabilities == nil {
		return internal.NewValidationFieldError("capabilities", "capabilities are required", internal.ErrCodeValidationFailed)
	}
	for cap := range dto.Capabilities {
		known := false
		for _, c := range AllCapabilities {
			if cap == c {
				known = true
				break
			}
		}
		if !known {
			return internal.NewValidationFieldError("capabilities", "unknown capability: "+string(cap), internal.ErrCodeValidationFailed)
		}
	}
	return nil
}

// MatrixResponse is the wire shape of the merged table plus role metadata.
type MatrixResponse struct {
	Roles  []RoleInfo             `json:"roles"`
	Matrix map[Role]CapabilitySet `json:"matrix"`
}

type RoleInfo struct {
	Role  Role   `json:"role"`
	Label string `json:"label"`
	Level int    `json:"level"`
}
