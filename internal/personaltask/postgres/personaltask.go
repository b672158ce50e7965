package postgres

import (
	"time"

	"github.com/workdeskhq/workdesk/internal/personaltask"
	"gorm.io/gorm"
)

// PersonalTaskRepository implements the personaltask.Repository
// interface using GORM.
type PersonalTaskRepository struct {
	db *gorm.DB
}

func NewPersonalTaskRepository(db *gorm.DB) personaltask.Repository {
	return &PersonalTaskRepository{db: db}
}

func (r *PersonalTaskRepository) Create(t *personaltask.PersonalTask) error {
	return r.db.Create(t).Error
}

func (r *PersonalTaskRepository) GetByID(id string) (*personaltask.PersonalTask, error) {
	var t personaltask.PersonalTask
	err := r.db.Where("id = ?", id).First(&t).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, personaltask.ErrPersonalTaskNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *PersonalTaskRepository) GetByOwnerAndDay(ownerID, day string) ([]*personaltask.PersonalTask, error) {
	var tasks []*personaltask.PersonalTask
	err := r.db.Where("owner_id = ? AND day = ?", ownerID, day).
		Order("created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

// GetByOwnerBetween relies on the lexicographic ordering of the
// YYYY-MM-DD day format. Month-only entries fall outside any daily
// range and are excluded.
func (r *PersonalTaskRepository) GetByOwnerBetween(ownerID, fromDay, toDay string) ([]*personaltask.PersonalTask, error) {
	var tasks []*personaltask.PersonalTask
	err := r.db.Where("owner_id = ? AND day >= ? AND day <= ?", ownerID, fromDay, toDay).
		Order("day ASC, created_at ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *PersonalTaskRepository) Update(t *personaltask.PersonalTask) error {
	t.UpdatedAt = time.Now()
	return r.db.Save(t).Error
}

func (r *PersonalTaskRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&personaltask.PersonalTask{}).Error
}
