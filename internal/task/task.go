package task

import (
	"errors"
	"time"

	"github.com/workdeskhq/workdesk/internal/core/datamodel"
)

// Task statuses. Transitions are deliberately free-form: any authorized
// editor may set any status, there is no enforced state machine.
const (
	StatusTodo       = "TODO"
	StatusInProgress = "IN_PROGRESS"
	StatusReview     = "REVIEW"
	StatusDone       = "DONE"
	StatusPending    = "PENDING"
	StatusCancelled  = "CANCELLED"
)

var validStatuses = map[string]bool{
	StatusTodo:       true,
	StatusInProgress: true,
	StatusReview:     true,
	StatusDone:       true,
	StatusPending:    true,
	StatusCancelled:  true,
}

func IsValidStatus(status string) bool {
	return validStatuses[status]
}

// Task priorities.
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

func IsValidPriority(priority string) bool {
	return priority == PriorityLow || priority == PriorityMedium || priority == PriorityHigh
}

// Task is a team task on the kanban board.
type Task struct {
	ID           string                `json:"id" gorm:"primaryKey"`
	Title        string                `json:"title" gorm:"column:title;not null"`
	Description  string                `json:"description" gorm:"column:description"`
	AssignerID   string                `json:"assigner_id" gorm:"column:assigner_id;not null"`
	AssigneeID   string                `json:"assignee_id" gorm:"column:assignee_id;not null"`
	SupporterIDs datamodel.StringList  `json:"supporter_ids" gorm:"column:supporter_ids;type:text"`
	Status       string                `json:"status" gorm:"column:status;default:TODO"`
	Priority     string                `json:"priority" gorm:"column:priority;default:medium"`
	StartDate    time.Time             `json:"start_date" gorm:"column:start_date;type:date"`
	Deadline     time.Time             `json:"deadline" gorm:"column:deadline;type:date"`
	Subtasks     datamodel.SubtaskList `json:"subtasks" gorm:"column:subtasks;type:text"`
	CreatedAt    time.Time             `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time             `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Task) TableName() string {
	return "tasks"
}

// IsOpen reports whether the task still counts against its deadline.
func (t *Task) IsOpen() bool {
	return t.Status != StatusDone && t.Status != StatusCancelled
}

// IsOverdue reports whether the task is open past its deadline at the given
// instant.
func (t *Task) IsOverdue(now time.Time) bool {
	return t.IsOpen() && t.Deadline.Before(now)
}

// CanBeEditedBy reports whether the member participates in the task.
func (t *Task) CanBeEditedBy(memberID string) bool {
	return t.AssignerID == memberID || t.AssigneeID == memberID || t.SupporterIDs.Contains(memberID)
}

// Domain errors
var (
	ErrTaskNotFound = errors.New("task not found")
)
