package weeklyplan

import (
	"time"

	"github.com/workdeskhq/workdesk/internal"
)

// SubmitPlanDTO is the request payload for submitting (or resubmitting)
// a weekly plan. WeekOf may be any date inside the target week.
type SubmitPlanDTO struct {
	WeekOf         string `json:"week_of"`
	ApproverID     string `json:"approver_id"`
	SubmissionNote string `json:"submission_note"`
}

func (dto SubmitPlanDTO) Validate() error {
	if dto.WeekOf == "" {
		return internal.NewValidationFieldError("week_of", "week_of is required", internal.ErrCodeValidationFailed)
	}
	if _, err := time.Parse("2006-01-02", dto.WeekOf); err != nil {
		return internal.NewValidationFieldError("week_of", "week_of must be formatted as YYYY-MM-DD", internal.ErrCodeInvalidDate)
	}
	return nil
}

// DecisionDTO carries the approver's feedback. Feedback is optional on
// approval and mandatory on rejection.
type DecisionDTO struct {
	Feedback string `json:"feedback"`
}

// FinalizePlanDTO carries the owner's self-review for the week.
type FinalizePlanDTO struct {
	Rating       int    `json:"rating"`
	Highlights   string `json:"highlights"`
	Improvements string `json:"improvements"`
}

func (dto FinalizePlanDTO) Validate() error {
	if dto.Rating < 1 || dto.Rating > 5 {
		return internal.NewValidationFieldError("rating", "rating must be between 1 and 5", internal.ErrCodeValidationFailed)
	}
	return nil
}

// ManagerEvalDTO carries the approver's evaluation of a closed week.
type ManagerEvalDTO struct {
	Rating  int    `json:"rating"`
	Comment string `json:"comment"`
}

func (dto ManagerEvalDTO) Validate() error {
	if dto.Rating < 1 || dto.Rating > 5 {
		return internal.NewValidationFieldError("rating", "rating must be between 1 and 5", internal.ErrCodeValidationFailed)
	}
	return nil
}
