package postgres

import (
	"github.com/workdeskhq/workdesk/internal/systemconfig"
	"gorm.io/gorm"
)

// AnnouncementRepository implements the systemconfig.Repository
// interface using GORM.
type AnnouncementRepository struct {
	db *gorm.DB
}

func NewAnnouncementRepository(db *gorm.DB) systemconfig.Repository {
	return &AnnouncementRepository{db: db}
}

func (r *AnnouncementRepository) Create(a *systemconfig.Announcement) error {
	return r.db.Create(a).Error
}

func (r *AnnouncementRepository) GetByID(id string) (*systemconfig.Announcement, error) {
	var a systemconfig.Announcement
	err := r.db.Where("id = ?", id).First(&a).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, systemconfig.ErrAnnouncementNotFound
		}
		return nil, err
	}
	return &a, nil
}

func (r *AnnouncementRepository) GetAll() ([]*systemconfig.Announcement, error) {
	var announcements []*systemconfig.Announcement
	err := r.db.Order("starts_at DESC").Find(&announcements).Error
	return announcements, err
}

func (r *AnnouncementRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&systemconfig.Announcement{}).Error
}
