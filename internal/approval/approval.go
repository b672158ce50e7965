package approval

import (
	"errors"
	"time"
)

// Request statuses. CHANGES_REQUESTED sends the asset back to the
// requester without closing the ticket.
const (
	StatusPending          = "PENDING"
	StatusApproved         = "APPROVED"
	StatusRejected         = "REJECTED"
	StatusChangesRequested = "CHANGES_REQUESTED"
)

func IsValidDecision(status string) bool {
	return status == StatusApproved || status == StatusRejected || status == StatusChangesRequested
}

// ApprovalRequest is a content-review ticket for a produced asset.
// Approved requests feed the quality score.
type ApprovalRequest struct {
	ID           string    `json:"id" gorm:"primaryKey"`
	RequesterID  string    `json:"requester_id" gorm:"column:requester_id;not null;index"`
	Title        string    `json:"title" gorm:"column:title;not null"`
	Description  string    `json:"description" gorm:"column:description"`
	AssetURL     string    `json:"asset_url" gorm:"column:asset_url"`
	Status       string    `json:"status" gorm:"column:status;default:PENDING"`
	DecidedBy    string    `json:"decided_by,omitempty" gorm:"column:decided_by"`
	DecisionNote string    `json:"decision_note,omitempty" gorm:"column:decision_note"`
	CreatedAt    time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (ApprovalRequest) TableName() string {
	return "approval_requests"
}

// Domain errors
var (
	ErrRequestNotFound = errors.New("approval request not found")
)
