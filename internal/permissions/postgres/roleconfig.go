package postgres

import (
	"time"

	"github.com/workdeskhq/workdesk/internal/permissions"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoleConfigRepository implements permissions.Repository using GORM.
type RoleConfigRepository struct {
	db *gorm.DB
}

func NewRoleConfigRepository(db *gorm.DB) *RoleConfigRepository {
	return &RoleConfigRepository{db: db}
}

// GetAll returns every persisted role override.
func (r *RoleConfigRepository) GetAll() ([]*permissions.RoleConfig, error) {
	var configs []*permissions.RoleConfig
	err := r.db.Find(&configs).Error
	return configs, err
}

// Upsert inserts or replaces the override for one role.
func (r *RoleConfigRepository) Upsert(config *permissions.RoleConfig) error {
	config.UpdatedAt = time.Now()
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "role"}},
		UpdateAll: true,
	}).Create(config).Error
}
