package workreport

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/workdeskhq/workdesk/internal"
	"github.com/workdeskhq/workdesk/internal/core/events"
	"github.com/workdeskhq/workdesk/internal/member"
	"github.com/workdeskhq/workdesk/internal/permissions"
)

// Repository defines the data access methods for work reports.
type Repository interface {
	Create(r *WorkReport) error
	GetByID(id string) (*WorkReport, error)
	GetByUserAndDate(userID, date string) (*WorkReport, error)
	GetByUserBetween(userID, fromDate, toDate string) ([]*WorkReport, error)
	GetPending() ([]*WorkReport, error)
	Update(r *WorkReport) error
}

// PermissionChecker resolves the current capability matrix.
type PermissionChecker interface {
	HasCapability(role permissions.Role, cap permissions.Capability) bool
}

// Publisher pushes report change events to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, event events.ChangeEvent)
}

// AuditRecorder appends a human-readable action entry, fire-and-forget.
type AuditRecorder interface {
	Record(ctx context.Context, action, actorID, actorName, targetType, targetID string)
}

// Service handles daily report business logic.
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

// SubmitReport files the caller's report for a day. One report per
// member per day; filing twice is a conflict.
func (s *Service) SubmitReport(ctx context.Context, actor *member.Member, dto SubmitReportDTO) (*WorkReport, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	date := dto.Date
	if date == "" {
		date = time.Now().Format("2006-01-02")
	}

	if existing, err := s.repo.GetByUserAndDate(actor.ID, date); err == nil && existing != nil {
		return nil, internal.NewConflictError("a report for this day already exists", internal.ErrCodeDuplicateReport)
	}

	now := time.Now()
	r := &WorkReport{
		ID:          uuid.NewString(),
		UserID:      actor.ID,
		Date:        date,
		Summary:     dto.Summary,
		Blockers:    dto.Blockers,
		NextDayPlan: dto.NextDayPlan,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(r); err != nil {
		s.logger.Error("failed to file work report", "error", err, "user_id", actor.ID)
		return nil, internal.NewInternalError("failed to file work report", err)
	}

	s.publisher.Publish(ctx, events.ChangeEvent{
		ID:         r.ID,
		Kind:       events.KindWorkReport,
		Type:       events.ChangeAdded,
		Record:     r,
		OccurredAt: now,
	})
	s.audit.Record(ctx, "filed daily report for "+date, actor.ID, actor.Name, "work_report", r.ID)

	return r, nil
}

// ReviewReport lets a holder of the view-reports capability approve or
// reject a pending report, optionally attaching a rating.
func (s *Service) ReviewReport(ctx context.Context, actor *member.Member, reportID string, dto ReviewReportDTO) (*WorkReport, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if !s.perms.HasCapability(actor.Role, permissions.CapViewReports) {
		s.logger.Warn("report review denied", "actor_id", actor.ID, "report_id", reportID)
		return nil, internal.NewForbiddenError("report review permission required", internal.ErrCodeUnauthorizedAccess)
	}

	r, err := s.repo.GetByID(reportID)
	if err != nil {
		return nil, internal.NewNotFoundError("work report not found", internal.ErrCodeReportNotFound)
	}
	if r.UserID == actor.ID {
		return nil, internal.NewForbiddenError("cannot review your own report", internal.ErrCodeUnauthorizedAccess)
	}

	r.Status = dto.Status
	if dto.Rating != nil {
		r.ManagerRating = dto.Rating
	}
	r.ReviewedBy = actor.ID
	r.UpdatedAt = time.Now()

	if err := s.repo.Update(r); err != nil {
		s.logger.Error("failed to review work report", "error", err, "report_id", reportID)
		return nil, internal.NewInternalError("failed to review work report", err)
	}

	s.publisher.Publish(ctx, events.ChangeEvent{
		ID:         r.ID,
		Kind:       events.KindWorkReport,
		Type:       events.ChangeModified,
		Record:     r,
		OccurredAt: r.UpdatedAt,
	})
	s.audit.Record(ctx, "reviewed daily report as "+r.Status, actor.ID, actor.Name, "work_report", r.ID)

	return r, nil
}

func (s *Service) GetReport(id string) (*WorkReport, error) {
	r, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewNotFoundError("work report not found", internal.ErrCodeReportNotFound)
	}
	return r, nil
}

// GetReportsForUser lists one member's reports in a date range. Reading
// someone else's reports requires the view-reports capability.
func (s *Service) GetReportsForUser(actor *member.Member, userID, fromDate, toDate string) ([]*WorkReport, error) {
	if actor.ID != userID && !s.perms.HasCapability(actor.Role, permissions.CapViewReports) {
		return nil, internal.NewForbiddenError("cannot view this member's reports", internal.ErrCodeUnauthorizedAccess)
	}
	return s.repo.GetByUserBetween(userID, fromDate, toDate)
}

// GetPendingReports lists reports awaiting review.
func (s *Service) GetPendingReports(actor *member.Member) ([]*WorkReport, error) {
	if !s.perms.HasCapability(actor.Role, permissions.CapViewReports) {
		return nil, internal.NewForbiddenError("report review permission required", internal.ErrCodeUnauthorizedAccess)
	}
	return s.repo.GetPending()
}
