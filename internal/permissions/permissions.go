package permissions

import (
	"database/sql/driver"
	"encoding/json"
	"errors"
	"time"
)

// Role is one of the twelve fixed department roles.
type Role string

const (
	RoleBoard          Role = "board"
	RoleDeputyDirector Role = "deputy_director"
	RoleManager        Role = "manager"
	RoleAccountManager Role = "account_manager"
	RoleContentManager Role = "content_manager"
	RoleMediaManager   Role = "media_manager"
	RoleLeader         Role = "leader"
	RoleContentLeader  Role = "content_leader"
	RoleMediaLeader    Role = "media_leader"
	RoleDesigner       Role = "designer"
	RoleCopywriter     Role = "copywriter"
	RoleStaff          Role = "staff"
)

// AllRoles in descending seniority; the order is also the display order.
var AllRoles = []Role{
	RoleBoard,
	RoleDeputyDirector,
	RoleManager,
	RoleAccountManager,
	RoleContentManager,
	RoleMediaManager,
	RoleLeader,
	RoleContentLeader,
	RoleMediaLeader,
	RoleDesigner,
	RoleCopywriter,
	RoleStaff,
}

var roleLabels = map[Role]string{
	RoleBoard:          "Board of Directors",
	RoleDeputyDirector: "Deputy Director",
	RoleManager:        "Manager",
	RoleAccountManager: "Account Manager",
	RoleContentManager: "Content Manager",
	RoleMediaManager:   "Media Manager",
	RoleLeader:         "Team Leader",
	RoleContentLeader:  "Content Leader",
	RoleMediaLeader:    "Media Leader",
	RoleDesigner:       "Designer",
	RoleCopywriter:     "Copywriter",
	RoleStaff:          "Staff",
}

var roleLevels = map[Role]int{
	RoleBoard:          5,
	RoleDeputyDirector: 4,
	RoleManager:        3,
	RoleAccountManager: 3,
	RoleContentManager: 3,
	RoleMediaManager:   3,
	RoleLeader:         2,
	RoleContentLeader:  2,
	RoleMediaLeader:    2,
	RoleDesigner:       1,
	RoleCopywriter:     1,
	RoleStaff:          1,
}

// RoleLabel returns the display label shown in the UI. The reports_to field
// of a member is matched against these labels when resolving an approver.
func RoleLabel(role Role) string {
	if label, ok := roleLabels[role]; ok {
		return label
	}
	return string(role)
}

// RoleLevel returns the seniority rank, 5 (board) down to 1 (staff).
// Unknown roles rank lowest.
func RoleLevel(role Role) int {
	if level, ok := roleLevels[role]; ok {
		return level
	}
	return 1
}

// RoleByLabel resolves a display label back to its role. Used for the
// free-text reports_to lookup; returns false when nothing matches.
func RoleByLabel(label string) (Role, bool) {
	for role, l := range roleLabels {
		if l == label {
			return role, true
		}
	}
	return "", false
}

func IsValidRole(role Role) bool {
	_, ok := roleLevels[role]
	return ok
}

// Capability is one of the eleven per-role permission toggles.
type Capability string

const (
	CapView            Capability = "view"
	CapCreate          Capability = "create"
	CapEdit            Capability = "edit"
	CapDelete          Capability = "delete"
	CapAssignTasks     Capability = "assign_tasks"
	CapManageTeam      Capability = "manage_team"
	CapApproveAssets   Capability = "approve_assets"
	CapManageBudget    Capability = "manage_budget"
	CapViewReports     Capability = "view_reports"
	CapViewHistory     Capability = "view_history"
	CapConfigureSystem Capability = "configure_system"
)

var AllCapabilities = []Capability{
	CapView,
	CapCreate,
	CapEdit,
	CapDelete,
	CapAssignTasks,
	CapManageTeam,
	CapApproveAssets,
	CapManageBudget,
	CapViewReports,
	CapViewHistory,
	CapConfigureSystem,
}

// CapabilitySet maps capability to its toggle. Stored as a JSON column by
// the role config repository.
type CapabilitySet map[Capability]bool

func (s CapabilitySet) Value() (driver.Value, error) {
	if s == nil {
		return "{}", nil
	}
	b, err := json.Marshal(s)
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

func (s *CapabilitySet) Scan(value interface{}) error {
	if value == nil {
		*s = CapabilitySet{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, s)
	case string:
		return json.Unmarshal([]byte(v), s)
	default:
		return errors.New("unsupported type for CapabilitySet")
	}
}

// Matrix is the full role/capability table the rest of the system consults.
type Matrix map[Role]CapabilitySet

func capsFromLevel(level int) CapabilitySet {
	return CapabilitySet{
		CapView:            true,
		CapCreate:          true,
		CapEdit:            true,
		CapDelete:          level >= 2,
		CapAssignTasks:     level >= 2,
		CapManageTeam:      level >= 3,
		CapApproveAssets:   level >= 3,
		CapManageBudget:    level >= 4,
		CapViewReports:     level >= 2,
		CapViewHistory:     level >= 3,
		CapConfigureSystem: level >= 4,
	}
}

// DefaultMatrix returns a fresh copy of the built-in table. Callers may
// mutate the result freely.
func DefaultMatrix() Matrix {
	m := make(Matrix, len(AllRoles))
	for _, role := range AllRoles {
		caps := capsFromLevel(RoleLevel(role))
		if role == RoleManager {
			caps[CapManageBudget] = true
		}
		m[role] = caps
	}
	return m
}

// Merge deep-merges an admin override on top of the defaults. Any role or
// capability missing from the override resolves from the default table, so a
// partial or corrupted override can never leave a consumer without an answer.
func Merge(override Matrix) Matrix {
	merged := DefaultMatrix()
	for role, caps := range override {
		base, ok := merged[role]
		if !ok {
			// override names a role the defaults do not know; take it as-is
			base = CapabilitySet{}
			merged[role] = base
		}
		for cap, allowed := range caps {
			base[cap] = allowed
		}
	}
	return merged
}

// HasCapability is a pure lookup into the matrix. Unknown roles and unknown
// capabilities resolve to false.
func (m Matrix) HasCapability(role Role, cap Capability) bool {
	caps, ok := m[role]
	if !ok {
		return false
	}
	return caps[cap]
}

// RoleConfig is the persisted per-role record behind an admin override.
type RoleConfig struct {
	Role         Role          `json:"role" gorm:"column:role;primaryKey"`
	Label        string        `json:"label" gorm:"column:label;not null"`
	Capabilities CapabilitySet `json:"capabilities" gorm:"column:capabilities;type:text"`
	UpdatedBy    string        `json:"updated_by" gorm:"column:updated_by"`
	CreatedAt    time.Time     `json:"created_at" gorm:"column:created_at;default:now()"`
	UpdatedAt    time.Time     `json:"updated_at" gorm:"column:updated_at;default:now()"`
}

func (RoleConfig) TableName() string {
	return "role_configs"
}
