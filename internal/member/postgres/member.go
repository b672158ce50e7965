package postgres

import (
	"time"

	"github.com/workdeskhq/workdesk/internal/member"
	"gorm.io/gorm"
)

// MemberRepository implements the member.Repository interface using GORM.
type MemberRepository struct {
	db *gorm.DB
}

func NewMemberRepository(db *gorm.DB) member.Repository {
	return &MemberRepository{db: db}
}

func (r *MemberRepository) Create(m *member.Member) error {
	return r.db.Create(m).Error
}

func (r *MemberRepository) GetByID(id string) (*member.Member, error) {
	var m member.Member
	err := r.db.Where("id = ?", id).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, member.ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepository) GetByEmail(email string) (*member.Member, error) {
	var m member.Member
	err := r.db.Where("email = ?", email).First(&m).Error
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, member.ErrMemberNotFound
		}
		return nil, err
	}
	return &m, nil
}

func (r *MemberRepository) GetAll() ([]*member.Member, error) {
	var members []*member.Member
	err := r.db.Order("name ASC").Find(&members).Error
	return members, err
}

func (r *MemberRepository) Update(m *member.Member) error {
	m.UpdatedAt = time.Now()
	return r.db.Save(m).Error
}
