package task

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

// Repository defines the data access methods for tasks.
type Repository interface {
	Create(t *Task) error
	GetByID(id string) (*Task, error)
	GetByAssignee(assigneeID string) ([]*Task, error)
	GetAll() ([]*Task, error)
	Update(t *Task) error
	Delete(id string) error
}

// PermissionChecker resolves the current capability matrix.
type PermissionChecker interface {
	HasCapability(role permissions.Role, cap permissions.Capability) bool
}

// Publisher pushes task change events to live subscribers. Notification
// rules react to these events.
type Publisher interface {
	Publish(ctx context.Context, event events.ChangeEvent)
}

// AuditRecorder appends a human-readable action entry, fire-and-forget.
type AuditRecorder interface {
	Record(ctx context.Context, action, actorID, actorName, targetType, targetID string)
}

// Service handles team task business logic.
type Service struct {
	repo      Repository
	perms     PermissionChecker
	publisher Publisher
	audit     AuditRecorder
	logger    *slog.Logger
}

func NewService(repo Repository, perms PermissionChecker, publisher Publisher, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		perms:     perms,
		publisher: publisher,
		audit:     audit,
		logger:    logger,
	}
}

// CreateTask assigns a new task; requires the assign-tasks capability.
func (s *Service) CreateTask(ctx context.Context, actor *member.Member, dto CreateTaskDTO) (*Task, error) {
	if !s.perms.HasCapability(actor.Role, permissions.CapAssignTasks) {
		s.logger.Warn("create task denied: insufficient permissions", "actor_id", actor.ID)
		return nil, internal.NewForbiddenError("task assignment permission required", internal.ErrCodeUnauthorizedAccess)
	}

	if err := dto.Validate(); err != nil {
		s.logger.Error("task validation failed", "error", err, "actor_id", actor.ID)
		return nil, err
	}

	priority := dto.Priority
	if priority == "" {
		priority = PriorityMedium
	}

	now := time.Now()
	t := &Task{
		ID:           uuid.NewString(),
		Title:        dto.Title,
		Description:  dto.Description,
		AssignerID:   actor.ID,
		AssigneeID:   dto.AssigneeID,
		SupporterIDs: datamodel.StringList(dto.SupporterIDs),
		Status:       StatusTodo,
		Priority:     priority,
		StartDate:    dto.StartDate,
		Deadline:     dto.Deadline,
		Subtasks:     datamodel.SubtaskList(dto.Subtasks),
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	if err := s.repo.Create(t); err != nil {
		s.logger.Error("failed to create task", "error", err, "actor_id", actor.ID)
		return nil, internal.NewInternalError("failed to create task", err)
	}

	s.publisher.Publish(ctx, events.ChangeEvent{
		ID:         t.ID,
		Kind:       events.KindTask,
		Type:       events.ChangeAdded,
		Record:     t,
		OccurredAt: now,
	})
	s.audit.Record(ctx, "assigned task "+t.Title, actor.ID, actor.Name, "task", t.ID)

	s.logger.Info("task created",
		"task_id", t.ID,
		"assigner_id", t.AssignerID,
		"assignee_id", t.AssigneeID,
		"priority", t.Priority)

	return t, nil
}

func (s *Service) GetTask(id string) (*Task, error) {
	t, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewNotFoundError("task not found", internal.ErrCodeTaskNotFound)
	}
	return t, nil
}

func (s *Service) GetTasksForMember(memberID string) ([]*Task, error) {
	return s.repo.GetByAssignee(memberID)
}

func (s *Service) GetAllTasks() ([]*Task, error) {
	return s.repo.GetAll()
}

// UpdateTask edits task content. Participants may edit their own tasks;
// anyone else needs the edit capability.
func (s *Service) UpdateTask(ctx context.Context, actor *member.Member, taskID string, dto UpdateTaskDTO) (*Task, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t, err := s.repo.GetByID(taskID)
	if err != nil {
		return nil, internal.NewNotFoundError("task not found", internal.ErrCodeTaskNotFound)
	}

	if !t.CanBeEditedBy(actor.ID) && !s.perms.HasCapability(actor.Role, permissions.CapEdit) {
		s.logger.Warn("update task denied", "actor_id", actor.ID, "task_id", taskID)
		return nil, internal.NewForbiddenError("cannot edit this task", internal.ErrCodeUnauthorizedAccess)
	}

	if dto.Title != "" {
		t.Title = dto.Title
	}
	if dto.Description != nil {
		t.Description = *dto.Description
	}
	if dto.AssigneeID != "" {
		t.AssigneeID = dto.AssigneeID
	}
	if dto.SupporterIDs != nil {
		t.SupporterIDs = datamodel.StringList(dto.SupporterIDs)
	}
	if dto.Priority != "" {
		t.Priority = dto.Priority
	}
	if dto.StartDate != nil {
		t.StartDate = *dto.StartDate
	}
	if dto.Deadline != nil {
		t.Deadline = *dto.Deadline
	}
	if dto.Subtasks != nil {
		t.Subtasks = datamodel.SubtaskList(dto.Subtasks)
	}
	t.UpdatedAt = time.Now()

	if err := s.repo.Update(t); err != nil {
		s.logger.Error("failed to update task", "error", err, "task_id", taskID)
		return nil, internal.NewInternalError("failed to update task", err)
	}

	s.publisher.Publish(ctx, events.ChangeEvent{
		ID:         t.ID,
		Kind:       events.KindTask,
		Type:       events.ChangeModified,
		Record:     t,
		OccurredAt: t.UpdatedAt,
	})

	return t, nil
}

// UpdateStatus sets any status on the task; there is no transition table.
func (s *Service) UpdateStatus(ctx context.Context, actor *member.Member, taskID string, dto UpdateStatusDTO) (*Task, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	t, err := s.repo.GetByID(taskID)
	if err != nil {
		return nil, internal.NewNotFoundError("task not found", internal.ErrCodeTaskNotFound)
	}

	if !t.CanBeEditedBy(actor.ID) && !s.perms.HasCapability(actor.Role, permissions.CapEdit) {
		s.logger.Warn("status update denied", "actor_id", actor.ID, "task_id", taskID)
		return nil, internal.NewForbiddenError("cannot edit this task", internal.ErrCodeUnauthorizedAccess)
	}

	previous := t.Status
	t.Status = dto.Status
	t.UpdatedAt = time.Now()

	if err := s.repo.Update(t); err != nil {
		s.logger.Error("failed to update task status", "error", err, "task_id", taskID)
		return nil, internal.NewInternalError("failed to update task status", err)
	}

	s.publisher.Publish(ctx, events.ChangeEvent{
		ID:         t.ID,
		Kind:       events.KindTask,
		Type:       events.ChangeModified,
		Record:     t,
		OccurredAt: t.UpdatedAt,
	})
	s.audit.Record(ctx, "moved task "+t.Title+" from "+previous+" to "+t.Status, actor.ID, actor.Name, "task", t.ID)

	s.logger.Info("task status updated",
		"task_id", taskID,
		"previous", previous,
		"status", t.Status,
		"actor_id", actor.ID)

	return t, nil
}

// DeleteTask removes a task; requires the delete capability.
func (s *Service) DeleteTask(ctx context.Context, actor *member.Member, taskID string) error {
	if !s.perms.HasCapability(actor.Role, permissions.CapDelete) {
		s.logger.Warn("delete task denied", "actor_id", actor.ID, "task_id", taskID)
		return internal.NewForbiddenError("delete permission required", internal.ErrCodeUnauthorizedAccess)
	}

	t, err := s.repo.GetByID(taskID)
	if err != nil {
		return internal.NewNotFoundError("task not found", internal.ErrCodeTaskNotFound)
	}

	if err := s.repo.Delete(taskID); err != nil {
		s.logger.Error("failed to delete task", "error", err, "task_id", taskID)
		return internal.NewInternalError("failed to delete task", err)
	}

	s.publisher.Publish(ctx, events.ChangeEvent{
		ID:         t.ID,
		Kind:       events.KindTask,
		Type:       events.ChangeRemoved,
		Record:     t,
		OccurredAt: time.Now(),
	})
	s.audit.Record(ctx, "deleted task "+t.Title, actor.ID, actor.Name, "task", t.ID)

	return nil
}
