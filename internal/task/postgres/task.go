package postgres

import (
	"time"

	"github.com/workdeskhq/workdesk/internal/task"
	"gorm.io/gorm"
)

// TaskRepository implements the task.Repository interface using GORM.
type TaskRepository struct {
	db *gorm.DB
}

func NewTaskRepository(db *gorm.DB) task.Repository {
	return &TaskRepository{db: db}
}

func (r *TaskRepository) Create(t *task.Task) error {
	return r.db.Create(t).Error
}

func (r *TaskRepository) GetByID(id string) (*task.Task, error) {
	var t task.Task
	err := r.db.Where("id = ?", id).First(&t).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, task.ErrTaskNotFound
		}
		return nil, err
	}
	return &t, nil
}

func (r *TaskRepository) GetByAssignee(assigneeID string) ([]*task.Task, error) {
	var tasks []*task.Task
	err := r.db.Where("assignee_id = ?", assigneeID).
		Order("deadline ASC").
		Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) GetAll() ([]*task.Task, error) {
	var tasks []*task.Task
	err := r.db.Order("deadline ASC").Find(&tasks).Error
	return tasks, err
}

func (r *TaskRepository) Update(t *task.Task) error {
	t.UpdatedAt = time.Now()
	return r.db.Save(t).Error
}

func (r *TaskRepository) Delete(id string) error {
	return r.db.Where("id = ?", id).Delete(&task.Task{}).Error
}
