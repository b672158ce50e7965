package workreport

import (
	"time"

	"github.com/workdeskhq/workdesk/internal"
)

// SubmitReportDTO is the request payload for filing a daily report.
// Date defaults to today when omitted.
type SubmitReportDTO struct {
	Date        string `json:"date"`
	Summary     string `json:"summary"`
	Blockers    string `json:"blockers"`
	NextDayPlan string `json:"next_day_plan"`
}

func (dto SubmitReportDTO) Validate() error {
	if dto.Summary == "" {
		return internal.NewValidationFieldError("summary", "summary is required", internal.ErrCodeValidationFailed)
	}
	if dto.Date != "" {
		if _, err := time.Parse("2006-01-02", dto.Date); err != nil {
			return internal.NewValidationFieldError("date", "date must be formatted as YYYY-MM-DD", internal.ErrCodeInvalidDate)
		}
	}
	return nil
}

// ReviewReportDTO carries a manager's decision on a report. The rating
// is optional; approval without a rating is allowed.
type ReviewReportDTO struct {
	Status string `json:"status"`
	Rating *int   `json:"rating"`
}

func (dto ReviewReportDTO) Validate() error {
	if dto.Status != StatusApproved && dto.Status != StatusRejected {
		return internal.NewValidationFieldError("status", "status must be APPROVED or REJECTED", internal.ErrCodeInvalidStatus)
	}
	if dto.Rating != nil && (*dto.Rating < 1 || *dto.Rating > 5) {
		return internal.NewValidationFieldError("rating", "rating must be between 1 and 5", internal.ErrCodeValidationFailed)
	}
	return nil
}
