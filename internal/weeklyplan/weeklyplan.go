package weeklyplan

import (
	"errors"
	"fmt"
	"time"

	"github.com/workdeskhq/workdesk/internal/core/datamodel"
)

// Plan statuses. A plan does not exist in storage before its first
// submission, so there is no persisted DRAFT state.
const (
	StatusPending   = "PENDING"
	StatusApproved  = "APPROVED"
	StatusRejected  = "REJECTED"
	StatusCompleted = "COMPLETED"
)

// WeeklyPlan is a member's committed task list for one ISO week,
// together with its approval state. Exactly one plan exists per
// (user, ISO year, ISO week).
type WeeklyPlan struct {
	ID               string               `json:"id" gorm:"primaryKey"`
	UserID           string               `json:"user_id" gorm:"column:user_id;not null;index"`
	Year             int                  `json:"year" gorm:"column:year;not null"`
	Week             int                  `json:"week" gorm:"column:week;not null"`
	Status           string               `json:"status" gorm:"column:status;not null"`
	ApproverID       string               `json:"approver_id" gorm:"column:approver_id;not null;index"`
	SubmissionNote   string               `json:"submission_note" gorm:"column:submission_note"`
	ManagerFeedback  string               `json:"manager_feedback" gorm:"column:manager_feedback"`
	CommittedTaskIDs datamodel.StringList `json:"committed_task_ids" gorm:"column:committed_task_ids;type:text"`

	ReviewRating       *int   `json:"review_rating,omitempty" gorm:"column:review_rating"`
	ReviewHighlights   string `json:"review_highlights,omitempty" gorm:"column:review_highlights"`
	ReviewImprovements string `json:"review_improvements,omitempty" gorm:"column:review_improvements"`

	ManagerEvalRating  *int   `json:"manager_eval_rating,omitempty" gorm:"column:manager_eval_rating"`
	ManagerEvalComment string `json:"manager_eval_comment,omitempty" gorm:"column:manager_eval_comment"`

	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (WeeklyPlan) TableName() string {
	return "weekly_plans"
}

// IsLocked reports whether the committed snapshot is frozen. Committed
// tasks stay frozen from submission onward; only a rejection unlocks
// them again.
func (p *WeeklyPlan) IsLocked() bool {
	return p.Status == StatusPending || p.Status == StatusApproved || p.Status == StatusCompleted
}

// IsAdHoc reports whether a personal task was added after the committed
// snapshot was taken. The distinction is derived, never stored per task.
func (p *WeeklyPlan) IsAdHoc(taskID string) bool {
	return !p.CommittedTaskIDs.Contains(taskID)
}

// HasReview reports whether the owner already attached a self-review.
func (p *WeeklyPlan) HasReview() bool {
	return p.ReviewRating != nil
}

// PlanID derives the composite plan id for any date inside the target
// week, using ISO-8601 week numbering. Re-deriving the id for the same
// (user, week) always addresses the same plan row.
func PlanID(userID string, dayInWeek time.Time) string {
	year, week := dayInWeek.ISOWeek()
	return fmt.Sprintf("%s_%d_W%d", userID, year, week)
}

// WeekBounds returns the Monday and Sunday of an ISO week.
func WeekBounds(year, week int) (time.Time, time.Time) {
	// January 4 is always inside ISO week 1.
	jan4 := time.Date(year, time.January, 4, 0, 0, 0, 0, time.UTC)
	monday := jan4.AddDate(0, 0, -((int(jan4.Weekday()) + 6) % 7))
	start := monday.AddDate(0, 0, (week-1)*7)
	return start, start.AddDate(0, 0, 6)
}

// Domain errors
var (
	ErrPlanNotFound = errors.New("weekly plan not found")
)
