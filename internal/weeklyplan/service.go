package weeklyplan

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/workdeskhq/workdesk/internal"
	"github.com/workdeskhq/workdesk/internal/core/datamodel"
	"github.com/workdeskhq/workdesk/internal/core/events"
	"github.com/workdeskhq/workdesk/internal/member"
	"github.com/workdeskhq/workdesk/internal/personaltask"
	"github.com/workdeskhq/workdesk/internal/permissions"
)

// Repository defines the data access methods for weekly plans.
type Repository interface {
	GetByID(id string) (*WeeklyPlan, error)
	GetByUser(userID string) ([]*WeeklyPlan, error)
	GetPendingForApprover(approverID string) ([]*WeeklyPlan, error)
	Upsert(p *WeeklyPlan) error
}

// TaskSource lists a member's dated personal tasks for the snapshot.
type TaskSource interface {
	GetByOwnerBetween(ownerID, fromDay, toDay string) ([]*personaltask.PersonalTask, error)
}

// MemberSource resolves members for approver resolution.
type MemberSource interface {
	GetByID(id string) (*member.Member, error)
	GetAll() ([]*member.Member, error)
}

// PermissionChecker resolves the current capability matrix.
type PermissionChecker interface {
	HasCapability(role permissions.Role, cap permissions.Capability) bool
}

// Publisher pushes plan change events to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, event events.ChangeEvent)
}

// AuditRecorder appends a human-readable action entry, fire-and-forget.
type AuditRecorder interface {
	Record(ctx context.Context, action, actorID, actorName, targetType, targetID string)
}

// Service drives the weekly plan lifecycle: submission, decision,
// close-out and the committed-task lock it imposes on personal tasks.
type Service struct {
	repo      Repository
	tasks     TaskSource
	members   MemberSource
	perms     PermissionChecker
	publisher Publisher
	audit     AuditRecorder
	logger    *slog.Logger
}

func NewService(repo Repository, tasks TaskSource, members MemberSource, perms PermissionChecker, publisher Publisher, audit AuditRecorder, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		tasks:     tasks,
		members:   members,
		perms:     perms,
		publisher: publisher,
		audit:     audit,
		logger:    logger,
	}
}

// Submit creates or resubmits the caller's plan for the week containing
// dto.WeekOf. The submission snapshots every personal task currently
// dated inside that week; an empty week cannot be submitted.
func (s *Service) Submit(ctx context.Context, actor *member.Member, dto SubmitPlanDTO) (*WeeklyPlan, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	weekOf, _ := time.Parse("2006-01-02", dto.WeekOf)
	planID := PlanID(actor.ID, weekOf)
	year, week := weekOf.ISOWeek()

	existing, err := s.repo.GetByID(planID)
	if err != nil && err != ErrPlanNotFound {
		return nil, internal.NewInternalError("failed to load weekly plan", err)
	}
	if existing != nil && existing.Status != StatusRejected {
		s.logger.Warn("plan resubmission blocked", "plan_id", planID, "status", existing.Status)
		return nil, internal.NewConflictError(
			fmt.Sprintf("plan for week %d is already %s", week, existing.Status),
			internal.ErrCodePlanBadTransition)
	}

	start, end := WeekBounds(year, week)
	weekTasks, err := s.tasks.GetByOwnerBetween(actor.ID, start.Format("2006-01-02"), end.Format("2006-01-02"))
	if err != nil {
		return nil, internal.NewInternalError("failed to load personal tasks for week", err)
	}
	if len(weekTasks) == 0 {
		return nil, internal.NewValidationError("cannot submit an empty weekly plan", internal.ErrCodePlanEmptyWeek)
	}

	approverID, err := s.resolveApprover(actor, dto.ApproverID)
	if err != nil {
		return nil, err
	}

	committed := make(datamodel.StringList, 0, len(weekTasks))
	for _, t := range weekTasks {
		committed = append(committed, t.ID)
	}

	now := time.Now()
	plan := &WeeklyPlan{
		ID:               planID,
		UserID:           actor.ID,
		Year:             year,
		Week:             week,
		Status:           StatusPending,
		ApproverID:       approverID,
		SubmissionNote:   dto.SubmissionNote,
		CommittedTaskIDs: committed,
		CreatedAt:        now,
		UpdatedAt:        now,
	}
	changeType := events.ChangeAdded
	if existing != nil {
		// resubmission keeps the row but re-snapshots the week and
		// clears the previous decision
		plan.CreatedAt = existing.CreatedAt
		plan.ManagerFeedback = ""
		changeType = events.ChangeModified
	}

	if err := s.repo.Upsert(plan); err != nil {
		s.logger.Error("failed to persist weekly plan", "error", err, "plan_id", planID)
		return nil, internal.NewInternalError("failed to submit weekly plan", err)
	}

	s.publisher.Publish(ctx, events.ChangeEvent{
		ID:         plan.ID,
		Kind:       events.KindWeeklyPlan,
		Type:       changeType,
		Record:     plan,
		OccurredAt: now,
	})
	s.audit.Record(ctx, fmt.Sprintf("submitted weekly plan for week %d/%d", week, year), actor.ID, actor.Name, "weekly_plan", plan.ID)

	s.logger.Info("weekly plan submitted",
		"plan_id", plan.ID,
		"user_id", actor.ID,
		"approver_id", approverID,
		"committed_tasks", len(committed))

	return plan, nil
}

// resolveApprover validates an explicit approver choice against the
// candidate list, or falls back to the reportsTo-based default.
func (s *Service) resolveApprover(actor *member.Member, override string) (string, error) {
	roster, err := s.members.GetAll()
	if err != nil {
		return "", internal.NewInternalError("failed to load members", err)
	}

	if override != "" {
		for _, c := range ApproverCandidates(actor, roster) {
			if c.ID == override {
				return override, nil
			}
		}
		return "", internal.NewValidationFieldError("approver_id", "selected approver is not an eligible candidate", internal.ErrCodeApproverRequired)
	}

	def := ResolveDefaultApprover(actor, roster)
	if def == nil {
		return "", internal.NewValidationFieldError("approver_id", "no approver could be resolved, select one explicitly", internal.ErrCodeApproverRequired)
	}
	return def.ID, nil
}

// canDecide reports whether the actor may approve or reject the plan.
func (s *Service) canDecide(actor *member.Member, plan *WeeklyPlan) bool {
	return actor.ID == plan.ApproverID || s.perms.HasCapability(actor.Role, permissions.CapManageTeam)
}

// Approve moves a pending plan to APPROVED. Feedback is optional.
func (s *Service) Approve(ctx context.Context, actor *member.Member, planID string, dto DecisionDTO) (*WeeklyPlan, error) {
	plan, err := s.getPlan(planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != StatusPending {
		return nil, internal.NewConflictError("only a pending plan can be approved", internal.ErrCodePlanBadTransition)
	}
	if !s.canDecide(actor, plan) {
		s.logger.Warn("plan approval denied", "actor_id", actor.ID, "plan_id", planID)
		return nil, internal.NewForbiddenError("only the plan's approver may decide", internal.ErrCodeUnauthorizedAccess)
	}

	plan.Status = StatusApproved
	plan.ManagerFeedback = dto.Feedback
	plan.UpdatedAt = time.Now()

	if err := s.repo.Upsert(plan); err != nil {
		s.logger.Error("failed to approve plan", "error", err, "plan_id", planID)
		return nil, internal.NewInternalError("failed to approve weekly plan", err)
	}

	s.publishModified(ctx, plan)
	s.audit.Record(ctx, fmt.Sprintf("approved weekly plan for week %d/%d", plan.Week, plan.Year), actor.ID, actor.Name, "weekly_plan", plan.ID)

	return plan, nil
}

// Reject moves a pending plan to REJECTED. Feedback is mandatory so the
// owner knows what to fix before resubmitting.
func (s *Service) Reject(ctx context.Context, actor *member.Member, planID string, dto DecisionDTO) (*WeeklyPlan, error) {
	if dto.Feedback == "" {
		return nil, internal.NewValidationFieldError("feedback", "rejection requires feedback", internal.ErrCodePlanFeedback)
	}

	plan, err := s.getPlan(planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != StatusPending {
		return nil, internal.NewConflictError("only a pending plan can be rejected", internal.ErrCodePlanBadTransition)
	}
	if !s.canDecide(actor, plan) {
		s.logger.Warn("plan rejection denied", "actor_id", actor.ID, "plan_id", planID)
		return nil, internal.NewForbiddenError("only the plan's approver may decide", internal.ErrCodeUnauthorizedAccess)
	}

	plan.Status = StatusRejected
	plan.ManagerFeedback = dto.Feedback
	plan.UpdatedAt = time.Now()

	if err := s.repo.Upsert(plan); err != nil {
		s.logger.Error("failed to reject plan", "error", err, "plan_id", planID)
		return nil, internal.NewInternalError("failed to reject weekly plan", err)
	}

	s.publishModified(ctx, plan)
	s.audit.Record(ctx, fmt.Sprintf("rejected weekly plan for week %d/%d", plan.Week, plan.Year), actor.ID, actor.Name, "weekly_plan", plan.ID)

	return plan, nil
}

// Finalize closes out an approved week. Owner-only; attaches the
// self-review if none exists yet. COMPLETED is terminal.
func (s *Service) Finalize(ctx context.Context, actor *member.Member, planID string, dto FinalizePlanDTO) (*WeeklyPlan, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	plan, err := s.getPlan(planID)
	if err != nil {
		return nil, err
	}
	if plan.UserID != actor.ID {
		return nil, internal.NewForbiddenError("only the plan owner may finalize", internal.ErrCodeUnauthorizedAccess)
	}
	if plan.Status != StatusApproved {
		return nil, internal.NewConflictError("only an approved plan can be finalized", internal.ErrCodePlanBadTransition)
	}

	if !plan.HasReview() {
		rating := dto.Rating
		plan.ReviewRating = &rating
		plan.ReviewHighlights = dto.Highlights
		plan.ReviewImprovements = dto.Improvements
	}
	plan.Status = StatusCompleted
	plan.UpdatedAt = time.Now()

	if err := s.repo.Upsert(plan); err != nil {
		s.logger.Error("failed to finalize plan", "error", err, "plan_id", planID)
		return nil, internal.NewInternalError("failed to finalize weekly plan", err)
	}

	s.publishModified(ctx, plan)
	s.audit.Record(ctx, fmt.Sprintf("closed out weekly plan for week %d/%d", plan.Week, plan.Year), actor.ID, actor.Name, "weekly_plan", plan.ID)

	return plan, nil
}

// SetManagerEval attaches the approver's rating to an approved or
// completed week.
func (s *Service) SetManagerEval(ctx context.Context, actor *member.Member, planID string, dto ManagerEvalDTO) (*WeeklyPlan, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	plan, err := s.getPlan(planID)
	if err != nil {
		return nil, err
	}
	if plan.Status != StatusApproved && plan.Status != StatusCompleted {
		return nil, internal.NewConflictError("plan has not been approved yet", internal.ErrCodePlanBadTransition)
	}
	if !s.canDecide(actor, plan) {
		return nil, internal.NewForbiddenError("only the plan's approver may evaluate", internal.ErrCodeUnauthorizedAccess)
	}

	rating := dto.Rating
	plan.ManagerEvalRating = &rating
	plan.ManagerEvalComment = dto.Comment
	plan.UpdatedAt = time.Now()

	if err := s.repo.Upsert(plan); err != nil {
		s.logger.Error("failed to store manager evaluation", "error", err, "plan_id", planID)
		return nil, internal.NewInternalError("failed to store manager evaluation", err)
	}

	s.publishModified(ctx, plan)

	return plan, nil
}

// GetPlan loads a plan, gated to its owner, its approver, and holders
// of the view-reports capability.
func (s *Service) GetPlan(actor *member.Member, planID string) (*WeeklyPlan, error) {
	plan, err := s.getPlan(planID)
	if err != nil {
		return nil, err
	}
	if actor.ID != plan.UserID && actor.ID != plan.ApproverID &&
		!s.perms.HasCapability(actor.Role, permissions.CapViewReports) {
		return nil, internal.NewForbiddenError("cannot view this plan", internal.ErrCodeUnauthorizedAccess)
	}
	return plan, nil
}

// GetPlanForWeek resolves the composite id for (userID, weekOf) and
// loads the plan through the same visibility gate as GetPlan.
func (s *Service) GetPlanForWeek(actor *member.Member, userID, weekOf string) (*WeeklyPlan, error) {
	day, err := time.Parse("2006-01-02", weekOf)
	if err != nil {
		return nil, internal.NewValidationFieldError("week_of", "week_of must be formatted as YYYY-MM-DD", internal.ErrCodeInvalidDate)
	}
	return s.GetPlan(actor, PlanID(userID, day))
}

// GetPlansForUser lists a member's plan history, newest week first.
func (s *Service) GetPlansForUser(actor *member.Member, userID string) ([]*WeeklyPlan, error) {
	if actor.ID != userID && !s.perms.HasCapability(actor.Role, permissions.CapViewReports) {
		return nil, internal.NewForbiddenError("cannot view this member's plans", internal.ErrCodeUnauthorizedAccess)
	}
	return s.repo.GetByUser(userID)
}

// GetPendingForApprover lists plans awaiting the actor's decision.
func (s *Service) GetPendingForApprover(actor *member.Member) ([]*WeeklyPlan, error) {
	return s.repo.GetPendingForApprover(actor.ID)
}

// Candidates lists the members the actor may select as approver.
func (s *Service) Candidates(actor *member.Member) ([]*member.Member, error) {
	roster, err := s.members.GetAll()
	if err != nil {
		return nil, internal.NewInternalError("failed to load members", err)
	}
	return ApproverCandidates(actor, roster), nil
}

// CheckTaskMutable enforces the committed-task lock: while the plan for
// the task's week is pending, approved or completed, a committed task
// may not be edited or deleted. Ad-hoc tasks (added after the snapshot)
// and monthly goals are never locked.
func (s *Service) CheckTaskMutable(ownerID, day, taskID string) error {
	if personaltask.IsMonthlyDay(day) {
		return nil
	}
	parsed, err := time.Parse("2006-01-02", day)
	if err != nil {
		return nil
	}

	plan, err := s.repo.GetByID(PlanID(ownerID, parsed))
	if err != nil {
		if err == ErrPlanNotFound {
			return nil
		}
		return internal.NewInternalError("failed to load weekly plan", err)
	}

	if plan.IsLocked() && !plan.IsAdHoc(taskID) {
		return internal.NewForbiddenError(
			fmt.Sprintf("task is committed to a %s weekly plan and cannot be changed", plan.Status),
			internal.ErrCodePlanLocked)
	}
	return nil
}

func (s *Service) getPlan(planID string) (*WeeklyPlan, error) {
	plan, err := s.repo.GetByID(planID)
	if err != nil {
		if err == ErrPlanNotFound {
			return nil, internal.NewNotFoundError("weekly plan not found", internal.ErrCodePlanNotFound)
		}
		return nil, internal.NewInternalError("failed to load weekly plan", err)
	}
	return plan, nil
}

func (s *Service) publishModified(ctx context.Context, plan *WeeklyPlan) {
	s.publisher.Publish(ctx, events.ChangeEvent{
		ID:         plan.ID,
		Kind:       events.KindWeeklyPlan,
		Type:       events.ChangeModified,
		Record:     plan,
		OccurredAt: plan.UpdatedAt,
	})
}
