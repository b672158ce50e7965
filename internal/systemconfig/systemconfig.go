package systemconfig

import (
	"errors"
	"time"
)

// Announcement is a department-wide notice shown while the current
// time falls inside its window. A zero EndsAt means no expiry.
type Announcement struct {
	ID        string    `json:"id" gorm:"primaryKey"`
	Title     string    `json:"title" gorm:"column:title;not null"`
	Message   string    `json:"message" gorm:"column:message"`
	StartsAt  time.Time `json:"starts_at" gorm:"column:starts_at;not null"`
	EndsAt    time.Time `json:"ends_at" gorm:"column:ends_at"`
	CreatedBy string    `json:"created_by" gorm:"column:created_by"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Announcement) TableName() string {
	return "announcements"
}

// IsActiveAt reports whether the announcement's window contains the
// given instant.
func (a *Announcement) IsActiveAt(now time.Time) bool {
	if now.Before(a.StartsAt) {
		return false
	}
	return a.EndsAt.IsZero() || !now.After(a.EndsAt)
}

// Domain errors
var (
	ErrAnnouncementNotFound = errors.New("announcement not found")
)
