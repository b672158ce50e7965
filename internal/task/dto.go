package task

import (
	"time"

	"github.com/workdeskhq/workdesk/internal"
	"github.com/workdeskhq/workdesk/internal/core/datamodel"
)

// CreateTaskDTO is the request payload for assigning a task.
type CreateTaskDTO struct {
	Title        string              `json:"title"`
	Description  string              `json:"description"`
	AssigneeID   string              `json:"assignee_id"`
	SupporterIDs []string            `json:"supporter_ids"`
	Priority     string              `json:"priority"`
	StartDate    time.Time           `json:"start_date"`
	Deadline     time.Time           `json:"deadline"`
	Subtasks     []datamodel.Subtask `json:"subtasks"`
}

func (dto CreateTaskDTO) Validate() error {
	if dto.Title == "" {
		return internal.NewValidationFieldError("title", "title is required", internal.ErrCodeValidationFailed)
	}
	if dto.AssigneeID == "" {
		return internal.NewValidationFieldError("assignee_id", "assignee is required", internal.ErrCodeValidationFailed)
	}
	if dto.Priority != "" && !IsValidPriority(dto.Priority) {
		return internal.NewValidationFieldError("priority", "priority must be low, medium or high", internal.ErrCodeValidationFailed)
	}
	if dto.Deadline.IsZero() {
		return internal.NewValidationFieldError("deadline", "deadline is required", internal.ErrCodeValidationFailed)
	}
	if !dto.StartDate.IsZero() && dto.Deadline.Before(dto.StartDate) {
		return internal.NewValidationFieldError("deadline", "deadline cannot be before start date", internal.ErrCodeInvalidDate)
	}
	return nil
}

// UpdateTaskDTO carries edits to an existing task. Zero-valued fields are
// left untouched.
type UpdateTaskDTO struct {
	Title        string              `json:"title"`
	Description  *string             `json:"description"`
	AssigneeID   string              `json:"assignee_id"`
	SupporterIDs []string            `json:"supporter_ids"`
	Priority     string              `json:"priority"`
	StartDate    *time.Time          `json:"start_date"`
	Deadline     *time.Time          `json:"deadline"`
	Subtasks     []datamodel.Subtask `json:"subtasks"`
}

func (dto UpdateTaskDTO) Validate() error {
	if dto.Priority != "" && !IsValidPriority(dto.Priority) {
		return internal.NewValidationFieldError("priority", "priority must be low, medium or high", internal.ErrCodeValidationFailed)
	}
	return nil
}

// UpdateStatusDTO sets a task status. Transitions are free-form.
type UpdateStatusDTO struct {
	Status string `json:"status"`
}

func (dto UpdateStatusDTO) Validate() error {
	if dto.Status == "" {
		return internal.NewValidationFieldError("status", "status is required", internal.ErrCodeValidationFailed)
	}
	if !IsValidStatus(dto.Status) {
		return internal.NewValidationFieldError("status", "unknown status", internal.ErrCodeInvalidStatus)
	}
	return nil
}
