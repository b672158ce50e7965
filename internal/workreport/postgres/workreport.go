package postgres

import (
	"time"

	"github.com/workdeskhq/workdesk/internal/workreport"
	"gorm.io/gorm"
)

// WorkReportRepository implements the workreport.Repository interface
// using GORM.
type WorkReportRepository struct {
	db *gorm.DB
}

func NewWorkReportRepository(db *gorm.DB) workreport.Repository {
	return &WorkReportRepository{db: db}
}

func (r *WorkReportRepository) Create(wr *workreport.WorkReport) error {
	return r.db.Create(wr).Error
}

func (r *WorkReportRepository) GetByID(id string) (*workreport.WorkReport, error) {
	var wr workreport.WorkReport
	err := r.db.Where("id = ?", id).First(&wr).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, workreport.ErrReportNotFound
		}
		return nil, err
	}
	return &wr, nil
}

func (r *WorkReportRepository) GetByUserAndDate(userID, date string) (*workreport.WorkReport, error) {
	var wr workreport.WorkReport
	err := r.db.Where("user_id = ? AND date = ?", userID, date).First(&wr).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, workreport.ErrReportNotFound
		}
		return nil, err
	}
	return &wr, nil
}

func (r *WorkReportRepository) GetByUserBetween(userID, fromDate, toDate string) ([]*workreport.WorkReport, error) {
	var reports []*workreport.WorkReport
	err := r.db.Where("user_id = ? AND date >= ? AND date <= ?", userID, fromDate, toDate).
		Order("date DESC").
		Find(&reports).Error
	return reports, err
}

func (r *WorkReportRepository) GetPending() ([]*workreport.WorkReport, error) {
	var reports []*workreport.WorkReport
	err := r.db.Where("status = ?", workreport.StatusPending).
		Order("date ASC").
		Find(&reports).Error
	return reports, err
}

func (r *WorkReportRepository) Update(wr *workreport.WorkReport) error {
	wr.UpdatedAt = time.Now()
	return r.db.Save(wr).Error
}
