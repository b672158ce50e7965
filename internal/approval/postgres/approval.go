package postgres

import (
	"time"

	"github.com/workdeskhq/workdesk/internal/approval"
	"gorm.io/gorm"
)

// ApprovalRepository implements the approval.Repository interface using
// GORM.
type ApprovalRepository struct {
	db *gorm.DB
}

func NewApprovalRepository(db *gorm.DB) approval.Repository {
	return &ApprovalRepository{db: db}
}

func (r *ApprovalRepository) Create(a *approval.ApprovalRequest) error {
	return r.db.Create(a).Error
}

func (r *ApprovalRepository) GetByID(id string) (*approval.ApprovalRequest, error) {
	var a approval.ApprovalRequest
	err := r.db.Where("id = ?", id).First(&a).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, approval.ErrRequestNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *ApprovalRepository) GetByRequester(requesterID string) ([]*approval.ApprovalRequest, error) {
	var requests []*approval.ApprovalRequest
	err := r.db.Where("requester_id = ?", requesterID).
		Order("created_at DESC").
		Find(&requests).Error
	return requests, err
}

func (r *ApprovalRepository) GetByRequesterBetween(requesterID string, from, to time.Time) ([]*approval.ApprovalRequest, error) {
	var requests []*approval.ApprovalRequest
	err := r.db.Where("requester_id = ? AND created_at >= ? AND created_at <= ?", requesterID, from, to).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}

func (r *ApprovalRepository) GetPending() ([]*approval.ApprovalRequest, error) {
	var requests []*approval.ApprovalRequest
	err := r.db.Where("status IN ?", []string{approval.StatusPending, approval.StatusChangesRequested}).
		Order("created_at ASC").
		Find(&requests).Error
	return requests, err
}

func (r *ApprovalRepository) Update(a *approval.ApprovalRequest) error {
	a.UpdatedAt = time.Now()
	return r.db.Save(a).Error
}
