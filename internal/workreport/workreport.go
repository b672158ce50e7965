package workreport

import (
	"errors"
	"time"
)

// Report statuses.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusRejected = "REJECTED"
)

// WorkReport is one member's daily report. Managers may attach a 1-5
// rating when reviewing; rated reports feed the quality score.
type WorkReport struct {
	ID            string    `json:"id" gorm:"primaryKey"`
	UserID        string    `json:"user_id" gorm:"column:user_id;not null;index"`
	Date          string    `json:"date" gorm:"column:date;not null;index"`
	Summary       string    `json:"summary" gorm:"column:summary;not null"`
	Blockers      string    `json:"blockers" gorm:"column:blockers"`
	NextDayPlan   string    `json:"next_day_plan" gorm:"column:next_day_plan"`
	Status        string    `json:"status" gorm:"column:status;default:PENDING"`
	ManagerRating *int      `json:"manager_rating,omitempty" gorm:"column:manager_rating"`
	ReviewedBy    string    `json:"reviewed_by,omitempty" gorm:"column:reviewed_by"`
	CreatedAt     time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt     time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (WorkReport) TableName() string {
	return "work_reports"
}

// HasRating reports whether a manager rating has been attached.
func (r *WorkReport) HasRating() bool {
	return r.ManagerRating != nil
}

// Domain errors
var (
	ErrReportNotFound = errors.New("work report not found")
)
