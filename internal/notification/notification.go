package notification

import (
	"fmt"

	"github.com/workdeskhq/workdesk/internal/core/events"
	"github.com/workdeskhq/workdesk/internal/task"
)

// Alert types.
const (
	TypeNewAssignment    = "new_assignment"
	TypeStatusToAssignee = "status_update"
	TypeStatusToAssigner = "assignee_progress"
)

// Alert is one notification addressed to one member. Sound and Push
// mark the delivery channels beyond the in-app feed.
type Alert struct {
	Type        string `json:"type"`
	RecipientID string `json:"recipient_id"`
	TaskID      string `json:"task_id"`
	Title       string `json:"title"`
	Body        string `json:"body"`
	Sound       bool   `json:"sound"`
	Push        bool   `json:"push"`
}

// Classify turns one task change event into zero or more alerts. The
// rules evaluate independently, so a single event may address both the
// assignee and the assigner. assigneeName labels the progress alert
// sent to the assigner; it may be empty.
func Classify(changeType events.ChangeType, t *task.Task, assigneeName string) []Alert {
	var alerts []Alert

	switch changeType {
	case events.ChangeAdded:
		// self-assignment never notifies
		if t.AssigneeID != t.AssignerID {
			alerts = append(alerts, Alert{
				Type:        TypeNewAssignment,
				RecipientID: t.AssigneeID,
				TaskID:      t.ID,
				Title:       "New task assigned",
				Body:        t.Title,
				Sound:       true,
				Push:        true,
			})
		}

	case events.ChangeModified:
		alerts = append(alerts, Alert{
			Type:        TypeStatusToAssignee,
			RecipientID: t.AssigneeID,
			TaskID:      t.ID,
			Title:       "Task updated",
			Body:        fmt.Sprintf("%s is now %s", t.Title, t.Status),
		})
		if t.AssignerID != t.AssigneeID {
			who := assigneeName
			if who == "" {
				who = t.AssigneeID
			}
			alerts = append(alerts, Alert{
				Type:        TypeStatusToAssigner,
				RecipientID: t.AssignerID,
				TaskID:      t.ID,
				Title:       "Assignee progress",
				Body:        fmt.Sprintf("%s moved %s to %s", who, t.Title, t.Status),
				// completion is pushed out-of-band, not just in-app
				Push: t.Status == task.StatusDone,
			})
		}
	}

	return alerts
}
