package postgres

import (
	"github.com/workdeskhq/workdesk/internal/audit"
	"gorm.io/gorm"
)

// AuditRepository implements the audit.Repository interface using GORM.
type AuditRepository struct {
	db *gorm.DB
}

func NewAuditRepository(db *gorm.DB) audit.Repository {
	return &AuditRepository{db: db}
}

func (r *AuditRepository) Append(e *audit.Entry) error {
	return r.db.Create(e).Error
}

func (r *AuditRepository) GetRecent(limit int) ([]*audit.Entry, error) {
	var entries []*audit.Entry
	err := r.db.Order("created_at DESC").
		Limit(limit).
		Find(&entries).Error
	return entries, err
}

func (r *AuditRepository) GetByTarget(targetType, targetID string) ([]*audit.Entry, error) {
	var entries []*audit.Entry
	err := r.db.Where("target_type = ? AND target_id = ?", targetType, targetID).
		Order("created_at DESC").
		Find(&entries).Error
	return entries, err
}
