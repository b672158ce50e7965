package personaltask

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/workdeskhq/workdesk/internal"
	"github.com/workdeskhq/workdesk/internal/core/datamodel"
	"github.com/workdeskhq/workdesk/internal/core/events"
	"github.com/workdeskhq/workdesk/internal/member"
	"github.com/workdeskhq/workdesk/internal/permissions"
)

// Repository defines the data access methods for personal tasks.
type Repository interface {
	Create(t *PersonalTask) error
	GetByID(id string) (*PersonalTask, error)
	GetByOwnerAndDay(ownerID, day string) ([]*PersonalTask, error)
	GetByOwnerBetween(ownerID, fromDay, toDay string) ([]*PersonalTask, error)
	Update(t *PersonalTask) error
	Delete(id string) error
}

// MemberSource resolves members for superior checks.
type MemberSource interface {
	GetByID(id string) (*member.Member, error)
}

// PermissionChecker resolves the current capability matrix.
type PermissionChecker interface {
	HasCapability(role permissions.Role, cap permissions.Capability) bool
}

// Publisher pushes change events to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, event events.ChangeEvent)
}

// PlanGuard vetoes mutations of entries committed to a weekly plan that
// is under review or already approved.
type PlanGuard interface {
	CheckTaskMutable(ownerID, day, taskID string) error
}

// Service handles personal task business logic.
type Service struct {
	repo    Repository
	members MemberSource
	perms   PermissionChecker
	guard   PlanGuard
	pub     Publisher
	logger  *slog.Logger
}

func NewService(repo Repository, members MemberSource, perms PermissionChecker, guard PlanGuard, pub Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		members: members,
		perms:   perms,
		guard:   guard,
		pub:     pub,
		logger:  logger,
	}
}

// canActOn reports whether the actor may write to another member's plan.
// Owners always may; otherwise the actor must outrank the owner or hold
// the manage-team capability.
func (s *Service) canActOn(actor *member.Member, ownerID string) (bool, error) {
	if actor.ID == ownerID {
		return true, nil
	}
	if s.perms.HasCapability(actor.Role, permissions.CapManageTeam) {
		return true, nil
	}
	owner, err := s.members.GetByID(ownerID)
	if err != nil {
		return false, internal.NewNotFoundError("member not found", internal.ErrCodeMemberNotFound)
	}
	return actor.Level() > owner.Level(), nil
}

// CreatePersonalTask adds a daily entry or monthly goal. Superiors may
// add entries for subordinates.
func (s *Service) CreatePersonalTask(ctx context.Context, actor *member.Member, dto CreatePersonalTaskDTO) (*PersonalTask, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	ownerID := dto.OwnerID
	if ownerID == "" {
		ownerID = actor.ID
	}

	allowed, err := s.canActOn(actor, ownerID)
	if err != nil {
		return nil, err
	}
	if !allowed {
		s.logger.Warn("create personal task denied", "actor_id", actor.ID, "owner_id", ownerID)
		return nil, internal.NewForbiddenError("cannot add tasks to this member's plan", internal.ErrCodeUnauthorizedAccess)
	}

	now := time.Now()
	t := &PersonalTask{
		ID:        uuid.NewString(),
		OwnerID:   ownerID,
		CreatedBy: actor.ID,
		Title:     dto.Title,
		Note:      dto.Note,
		Day:       dto.Day,
		Subtasks:  datamodel.SubtaskList(dto.Subtasks),
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := s.repo.Create(t); err != nil {
		s.logger.Error("failed to create personal task", "error", err, "owner_id", ownerID)
		return nil, internal.NewInternalError("failed to create personal task", err)
	}

	s.pub.Publish(ctx, events.ChangeEvent{
		ID:         t.ID,
		Kind:       events.KindPersonalTask,
		Type:       events.ChangeAdded,
		Record:     t,
		OccurredAt: now,
	})

	return t, nil
}

func (s *Service) GetPersonalTask(id string) (*PersonalTask, error) {
	t, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewNotFoundError("personal task not found", internal.ErrCodeTaskNotFound)
	}
	return t, nil
}

// GetForDay lists one member's entries for a day or month. Reading a
// subordinate's plan requires outranking them or the view-reports
// capability.
func (s *Service) GetForDay(actor *member.Member, ownerID, day string) ([]*PersonalTask, error) {
	if err := ValidateDay(day); err != nil {
		return nil, internal.NewValidationFieldError("day", err.Error(), internal.ErrCodeInvalidDate)
	}
	if actor.ID != ownerID && !s.perms.HasCapability(actor.Role, permissions.CapViewReports) {
		owner, err := s.members.GetByID(ownerID)
		if err != nil {
			return nil, internal.NewNotFoundError("member not found", internal.ErrCodeMemberNotFound)
		}
		if actor.Level() <= owner.Level() {
			return nil, internal.NewForbiddenError("cannot view this member's plan", internal.ErrCodeUnauthorizedAccess)
		}
	}
	return s.repo.GetByOwnerAndDay(ownerID, day)
}

// GetForRange lists one member's dated entries between two days,
// inclusive. Day strings compare lexicographically.
func (s *Service) GetForRange(ownerID, fromDay, toDay string) ([]*PersonalTask, error) {
	return s.repo.GetByOwnerBetween(ownerID, fromDay, toDay)
}

// UpdatePersonalTask edits an entry. Only the owner or the creator may
// edit, and entries committed to a plan under review are frozen.
func (s *Service) UpdatePersonalTask(ctx context.Context, actor *member.Member, taskID string, dto UpdatePersonalTaskDTO) (*PersonalTask, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t, err := s.repo.GetByID(taskID)
	if err != nil {
		return nil, internal.NewNotFoundError("personal task not found", internal.ErrCodeTaskNotFound)
	}

	if actor.ID != t.OwnerID && actor.ID != t.CreatedBy {
		s.logger.Warn("update personal task denied", "actor_id", actor.ID, "task_id", taskID)
		return nil, internal.NewForbiddenError("cannot edit this entry", internal.ErrCodeUnauthorizedAccess)
	}

	if err := s.guard.CheckTaskMutable(t.OwnerID, t.Day, t.ID); err != nil {
		return nil, err
	}
	if dto.Day != "" && dto.Day != t.Day {
		// moving the entry into a locked week is also a mutation of
		// that week's plan
		if err := s.guard.CheckTaskMutable(t.OwnerID, dto.Day, t.ID); err != nil {
			return nil, err
		}
		t.Day = dto.Day
	}

	if dto.Title != "" {
		t.Title = dto.Title
	}
	if dto.Note != nil {
		t.Note = *dto.Note
	}
	if dto.Done != nil {
		t.Done = *dto.Done
	}
	if dto.Subtasks != nil {
		t.Subtasks = datamodel.SubtaskList(dto.Subtasks)
	}
	t.UpdatedAt = time.Now()

	if err := s.repo.Update(t); err != nil {
		s.logger.Error("failed to update personal task", "error", err, "task_id", taskID)
		return nil, internal.NewInternalError("failed to update personal task", err)
	}

	s.pub.Publish(ctx, events.ChangeEvent{
		ID:         t.ID,
		Kind:       events.KindPersonalTask,
		Type:       events.ChangeModified,
		Record:     t,
		OccurredAt: t.UpdatedAt,
	})

	return t, nil
}

// DeletePersonalTask removes an entry, subject to the same ownership
// and plan lock rules as editing.
func (s *Service) DeletePersonalTask(ctx context.Context, actor *member.Member, taskID string) error {
	t, err := s.repo.GetByID(taskID)
	if err != nil {
		return internal.NewNotFoundError("personal task not found", internal.ErrCodeTaskNotFound)
	}

	if actor.ID != t.OwnerID && actor.ID != t.CreatedBy {
		s.logger.Warn("delete personal task denied", "actor_id", actor.ID, "task_id", taskID)
		return internal.NewForbiddenError("cannot delete this entry", internal.ErrCodeUnauthorizedAccess)
	}

	if err := s.guard.CheckTaskMutable(t.OwnerID, t.Day, t.ID); err != nil {
		return err
	}

	if err := s.repo.Delete(taskID); err != nil {
		s.logger.Error("failed to delete personal task", "error", err, "task_id", taskID)
		return internal.NewInternalError("failed to delete personal task", err)
	}

	s.pub.Publish(ctx, events.ChangeEvent{
		ID:         t.ID,
		Kind:       events.KindPersonalTask,
		Type:       events.ChangeRemoved,
		Record:     t,
		OccurredAt: time.Now(),
	})

	return nil
}
