package member

import (
	"errors"
	"strings"
	"time"

	"github.com/workdeskhq/workdesk/internal/permissions"
)

// Member is a person in the department. Members are created by an
// administrator, edited by themselves or an admin, and deactivated rather
// than deleted.
type Member struct {
	ID         string           `json:"id" gorm:"primaryKey"`
	Name       string           `json:"name" gorm:"column:name;not null"`
	Email      string           `json:"email" gorm:"column:email;uniqueIndex;not null"`
	Role       permissions.Role `json:"role" gorm:"column:role;not null"`
	Department string           `json:"department" gorm:"column:department"`
	// ReportsTo is free text matched against role display labels when
	// resolving a weekly plan approver. Kept for parity with the legacy data;
	// a manager_id foreign key is the intended replacement.
	ReportsTo string    `json:"reports_to" gorm:"column:reports_to"`
	Password  string    `json:"-" gorm:"column:password"`
	IsActive  bool      `json:"is_active" gorm:"column:is_active;default:true"`
	CreatedAt time.Time `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt time.Time `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (Member) TableName() string {
	return "members"
}

// Level returns the member's seniority rank.
func (m *Member) Level() int {
	return permissions.RoleLevel(m.Role)
}

// RoleLabel returns the display label for the member's role.
func (m *Member) RoleLabel() string {
	return permissions.RoleLabel(m.Role)
}

// IsManagerRank reports whether the member holds a level-3 management role.
func (m *Member) IsManagerRank() bool {
	return m.Level() >= 3
}

// HasLegacyPassword reports whether the stored credential is still the
// plaintext value imported from the old system rather than a bcrypt hash.
func (m *Member) HasLegacyPassword() bool {
	return m.Password != "" && !strings.HasPrefix(m.Password, "$2")
}

// Domain errors
var (
	ErrMemberNotFound = errors.New("member not found")
	ErrEmailTaken     = errors.New("email already registered")
)
