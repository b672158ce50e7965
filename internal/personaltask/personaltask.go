package personaltask

import (
	"errors"
	"strings"
	"time"

	"github.com/workdeskhq/workdesk/internal/core/datamodel"
)

// Day formats. A daily entry carries a full date, a monthly goal only
// carries the month. Monthly goals never participate in weekly plans.
const (
	DayLayout   = "2006-01-02"
	MonthLayout = "2006-01"
)

// PersonalTask is a single entry on a member's daily plan or monthly
// goal list. Superiors may create entries for their subordinates.
type PersonalTask struct {
	ID        string                `json:"id" gorm:"primaryKey"`
	OwnerID   string                `json:"owner_id" gorm:"column:owner_id;not null;index"`
	CreatedBy string                `json:"created_by" gorm:"column:created_by;not null"`
	Title     string                `json:"title" gorm:"column:title;not null"`
	Note      string                `json:"note" gorm:"column:note"`
	Day       string                `json:"day" gorm:"column:day;not null;index"`
	Done      bool                  `json:"done" gorm:"column:done;default:false"`
	Subtasks  datamodel.SubtaskList `json:"subtasks" gorm:"column:subtasks;type:text"`
	CreatedAt time.Time             `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time             `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (PersonalTask) TableName() string {
	return "personal_tasks"
}

// IsMonthly reports whether the entry is a monthly goal rather than a
// dated daily entry.
func (t *PersonalTask) IsMonthly() bool {
	return IsMonthlyDay(t.Day)
}

// IsMonthlyDay reports whether a day string uses the month-only format.
func IsMonthlyDay(day string) bool {
	return strings.Count(day, "-") == 1
}

// ValidateDay checks that a day string parses as either format.
func ValidateDay(day string) error {
	layout := DayLayout
	if IsMonthlyDay(day) {
		layout = MonthLayout
	}
	if _, err := time.Parse(layout, day); err != nil {
		return errors.New("day must be formatted as YYYY-MM-DD or YYYY-MM")
	}
	return nil
}

// Domain errors
var (
	ErrPersonalTaskNotFound = errors.New("personal task not found")
)
