package postgres

import (
	"github.com/workdeskhq/workdesk/internal/weeklyplan"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// WeeklyPlanRepository implements the weeklyplan.Repository interface
// using GORM.
type WeeklyPlanRepository struct {
	db *gorm.DB
}

func NewWeeklyPlanRepository(db *gorm.DB) weeklyplan.Repository {
	return &WeeklyPlanRepository{db: db}
}

func (r *WeeklyPlanRepository) GetByID(id string) (*weeklyplan.WeeklyPlan, error) {
	var p weeklyplan.WeeklyPlan
	err := r.db.Where("id = ?", id).First(&p).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, weeklyplan.ErrPlanNotFound
		}
		return nil, err
	}
	return &p, nil
}

func (r *WeeklyPlanRepository) GetByUser(userID string) ([]*weeklyplan.WeeklyPlan, error) {
	var plans []*weeklyplan.WeeklyPlan
	err := r.db.Where("user_id = ?", userID).
		Order("year DESC, week DESC").
		Find(&plans).Error
	return plans, err
}

func (r *WeeklyPlanRepository) GetPendingForApprover(approverID string) ([]*weeklyplan.WeeklyPlan, error) {
	var plans []*weeklyplan.WeeklyPlan
	err := r.db.Where("approver_id = ? AND status = ?", approverID, weeklyplan.StatusPending).
		Order("year ASC, week ASC").
		Find(&plans).Error
	return plans, err
}

// Upsert writes the plan keyed by its composite id, so resubmitting the
// same (user, week) always lands on the same row.
func (r *WeeklyPlanRepository) Upsert(p *weeklyplan.WeeklyPlan) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "id"}},
		UpdateAll: true,
	}).Create(p).Error
}
