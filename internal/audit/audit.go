package audit

import "time"

// Entry is one human-readable line in the action history. Entries are
// displayed as-is and never reasoned over by business logic.
type Entry struct {
	ID         string    `json:"id" gorm:"primaryKey"`
	Action     string    `json:"action" gorm:"column:action;not null"`
	ActorID    string    `json:"actor_id" gorm:"column:actor_id;not null;index"`
	ActorName  string    `json:"actor_name" gorm:"column:actor_name"`
	TargetType string    `json:"target_type" gorm:"column:target_type;index"`
	TargetID   string    `json:"target_id" gorm:"column:target_id"`
	CreatedAt  time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
}

func (Entry) TableName() string {
	return "audit_entries"
}
