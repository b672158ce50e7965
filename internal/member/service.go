package member

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/workdeskhq/workdesk/internal"
	"github.com/workdeskhq/workdesk/internal/core/events"
	"github.com/workdeskhq/workdesk/internal/permissions"
	"golang.org/x/crypto/bcrypt"
)

// Repository defines the data access methods for members.
type Repository interface {
	Create(m *Member) error
	GetByID(id string) (*Member, error)
	GetByEmail(email string) (*Member, error)
	GetAll() ([]*Member, error)
	Update(m *Member) error
}

// PermissionChecker resolves the current capability matrix.
type PermissionChecker interface {
	HasCapability(role permissions.Role, cap permissions.Capability) bool
}

// Publisher pushes member change events to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, event events.ChangeEvent)
}

// Service handles member management business logic.
type Service struct {
	repo       Repository
	perms      PermissionChecker
	publisher  Publisher
	logger     *slog.Logger
	bcryptCost int
}

func NewService(repo Repository, perms PermissionChecker, publisher Publisher, logger *slog.Logger, bcryptCost int) *Service {
	if bcryptCost == 0 {
		bcryptCost = bcrypt.DefaultCost
	}
	return &Service{
		repo:       repo,
		perms:      perms,
		publisher:  publisher,
		logger:     logger,
		bcryptCost: bcryptCost,
	}
}

// CreateMember adds a member; requires manage-team capability on the actor.
func (s *Service) CreateMember(ctx context.Context, actor *Member, dto CreateMemberDTO) (*Member, error) {
	if !s.perms.HasCapability(actor.Role, permissions.CapManageTeam) {
		s.logger.Warn("create member denied: insufficient permissions", "actor_id", actor.ID)
		return nil, internal.NewForbiddenError("team management permission required", internal.ErrCodeUnauthorizedAccess)
	}

	if err := dto.Validate(); err != nil {
		s.logger.Error("member validation failed", "error", err, "actor_id", actor.ID)
		return nil, err
	}

	if existing, err := s.repo.GetByEmail(dto.Email); err == nil && existing != nil {
		return nil, internal.NewConflictError("email already registered", internal.ErrCodeValidationFailed)
	}

	now := time.Now()
	m := &Member{
		ID:         uuid.NewString(),
		Name:       dto.Name,
		Email:      dto.Email,
		Role:       dto.Role,
		Department: dto.Department,
		ReportsTo:  dto.ReportsTo,
		IsActive:   true,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if dto.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		m.Password = string(hash)
	}

	if err := s.repo.Create(m); err != nil {
		s.logger.Error("failed to create member", "error", err, "actor_id", actor.ID)
		return nil, internal.NewInternalError("failed to create member", err)
	}

	s.publisher.Publish(ctx, events.ChangeEvent{
		ID:         m.ID,
		Kind:       events.KindMember,
		Type:       events.ChangeAdded,
		Record:     m,
		OccurredAt: now,
	})

	s.logger.Info("member created", "member_id", m.ID, "role", m.Role, "actor_id", actor.ID)

	return m, nil
}

// UpdateMember applies a self-edit or admin-edit. Role changes require the
// manage-team capability.
func (s *Service) UpdateMember(ctx context.Context, actor *Member, memberID string, dto UpdateMemberDTO) (*Member, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	m, err := s.repo.GetByID(memberID)
	if err != nil {
		return nil, internal.NewNotFoundError("member not found", internal.ErrCodeMemberNotFound)
	}

	isSelf := actor.ID == m.ID
	canManage := s.perms.HasCapability(actor.Role, permissions.CapManageTeam)
	if !isSelf && !canManage {
		s.logger.Warn("update member denied", "actor_id", actor.ID, "member_id", memberID)
		return nil, internal.NewForbiddenError("cannot edit another member", internal.ErrCodeUnauthorizedAccess)
	}

	if dto.Name != "" {
		m.Name = dto.Name
	}
	if dto.Department != "" {
		m.Department = dto.Department
	}
	if dto.ReportsTo != "" {
		m.ReportsTo = dto.ReportsTo
	}
	if dto.Role != "" {
		if !canManage {
			return nil, internal.NewForbiddenError("role changes require team management permission", internal.ErrCodeUnauthorizedAccess)
		}
		m.Role = dto.Role
	}
	if dto.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(dto.Password), s.bcryptCost)
		if err != nil {
			return nil, internal.NewInternalError("failed to hash password", err)
		}
		m.Password = string(hash)
	}
	m.UpdatedAt = time.Now()

	if err := s.repo.Update(m); err != nil {
		s.logger.Error("failed to update member", "error", err, "member_id", memberID)
		return nil, internal.NewInternalError("failed to update member", err)
	}

	s.publisher.Publish(ctx, events.ChangeEvent{
		ID:         m.ID,
		Kind:       events.KindMember,
		Type:       events.ChangeModified,
		Record:     m,
		OccurredAt: m.UpdatedAt,
	})

	return m, nil
}

// DeactivateMember marks a member inactive. Members are never hard-deleted.
func (s *Service) DeactivateMember(ctx context.Context, actor *Member, memberID string) error {
	if !s.perms.HasCapability(actor.Role, permissions.CapManageTeam) {
		return internal.NewForbiddenError("team management permission required", internal.ErrCodeUnauthorizedAccess)
	}

	m, err := s.repo.GetByID(memberID)
	if err != nil {
		return internal.NewNotFoundError("member not found", internal.ErrCodeMemberNotFound)
	}

	m.IsActive = false
	m.UpdatedAt = time.Now()
	if err := s.repo.Update(m); err != nil {
		s.logger.Error("failed to deactivate member", "error", err, "member_id", memberID)
		return internal.NewInternalError("failed to deactivate member", err)
	}

	s.publisher.Publish(ctx, events.ChangeEvent{
		ID:         m.ID,
		Kind:       events.KindMember,
		Type:       events.ChangeModified,
		Record:     m,
		OccurredAt: m.UpdatedAt,
	})

	s.logger.Info("member deactivated", "member_id", memberID, "actor_id", actor.ID)

	return nil
}

func (s *Service) GetMember(id string) (*Member, error) {
	m, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewNotFoundError("member not found", internal.ErrCodeMemberNotFound)
	}
	return m, nil
}

func (s *Service) GetAllMembers() ([]*Member, error) {
	return s.repo.GetAll()
}

// CanViewMember gates who may see whose data: self, anyone strictly above
// the subject in seniority, or a holder of the manage-team capability.
func (s *Service) CanViewMember(viewer, subject *Member) bool {
	if viewer.ID == subject.ID {
		return true
	}
	if s.perms.HasCapability(viewer.Role, permissions.CapManageTeam) {
		return true
	}
	return viewer.Level() > subject.Level()
}

// ViewableMembers filters the roster down to what the viewer may see.
func (s *Service) ViewableMembers(viewer *Member) ([]*Member, error) {
	all, err := s.repo.GetAll()
	if err != nil {
		return nil, err
	}
	visible := make([]*Member, 0, len(all))
	for _, m := range all {
		if s.CanViewMember(viewer, m) {
			visible = append(visible, m)
		}
	}
	return visible, nil
}
