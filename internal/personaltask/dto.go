package personaltask

import (
	"github.com/workdeskhq/workdesk/internal"
	"github.com/workdeskhq/workdesk/internal/core/datamodel"
)

// CreatePersonalTaskDTO is the request payload for adding a daily plan
// entry or monthly goal. OwnerID defaults to the caller.
type CreatePersonalTaskDTO struct {
	OwnerID  string              `json:"owner_id"`
	Title    string              `json:"title"`
	Note     string              `json:"note"`
	Day      string              `json:"day"`
	Subtasks []datamodel.Subtask `json:"subtasks"`
}

func (dto CreatePersonalTaskDTO) Validate() error {
	if dto.Title == "" {
		return internal.NewValidationFieldError("title", "title is required", internal.ErrCodeValidationFailed)
	}
	if dto.Day == "" {
		return internal.NewValidationFieldError("day", "day is required", internal.ErrCodeValidationFailed)
	}
	if err := ValidateDay(dto.Day); err != nil {
		return internal.NewValidationFieldError("day", err.Error(), internal.ErrCodeInvalidDate)
	}
	return nil
}

// UpdatePersonalTaskDTO carries edits to an existing entry. Nil or
// zero-valued fields are left untouched.
type UpdatePersonalTaskDTO struct {
	Title    string              `json:"title"`
	Note     *string             `json:"note"`
	Day      string              `json:"day"`
	Done     *bool               `json:"done"`
	Subtasks []datamodel.Subtask `json:"subtasks"`
}

func (dto UpdatePersonalTaskDTO) Validate() error {
	if dto.Day != "" {
		if err := ValidateDay(dto.Day); err != nil {
			return internal.NewValidationFieldError("day", err.Error(), internal.ErrCodeInvalidDate)
		}
	}
	return nil
}
