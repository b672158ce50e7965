package approval

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

// Repository defines the data access methods for approval requests.
type Repository interface {
	Create(a *ApprovalRequest) error
	GetByID(id string) (*ApprovalRequest, error)
	GetByRequester(requesterID string) ([]*ApprovalRequest, error)
	GetByRequesterBetween(requesterID string, from, to time.Time) ([]*ApprovalRequest, error)
	GetPending() ([]*ApprovalRequest, error)
	Update(a *ApprovalRequest) error
}

// PermissionChecker resolves the current capability matrix.
type PermissionChecker interface {
	HasCapability(role permissions.Role, cap permissions.Capability) bool
}

// Publisher pushes request change events to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, event events.ChangeEvent)
}

// AuditRecorder appends a human-readable action entry, fire-and-forget.
type AuditRecorder interface {
	Record(ctx context.Context, action, actorID, actorName, targetType, targetID string)
}

// Service handles content-review ticket business logic.
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

// CreateRequest opens a review ticket for the caller's asset.
func (s *Service) CreateRequest(ctx context.Context, actor *member.Member, dto CreateRequestDTO) (*ApprovalRequest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	a := &ApprovalRequest{
		ID:          uuid.NewString(),
		RequesterID: actor.ID,
		Title:       dto.Title,
		Description: dto.Description,
		AssetURL:    dto.AssetURL,
		Status:      StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Create(a); err != nil {
		s.logger.Error("failed to create approval request", "error", err, "requester_id", actor.ID)
		return nil, internal.NewInternalError("failed to create approval request", err)
	}

	s.publisher.Publish(ctx, events.ChangeEvent{
		ID:         a.ID,
		Kind:       events.KindApproval,
		Type:       events.ChangeAdded,
		Record:     a,
		OccurredAt: now,
	})
	s.audit.Record(ctx, "requested review of "+a.Title, actor.ID, actor.Name, "approval_request", a.ID)

	return a, nil
}

// DecideRequest records a reviewer's decision; requires the
// approve-assets capability. CHANGES_REQUESTED leaves the ticket open
// for a fresh decision after rework.
func (s *Service) DecideRequest(ctx context.Context, actor *member.Member, requestID string, dto DecideRequestDTO) (*ApprovalRequest, error) {
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	if !s.perms.HasCapability(actor.Role, permissions.CapApproveAssets) {
		s.logger.Warn("request decision denied", "actor_id", actor.ID, "request_id", requestID)
		return nil, internal.NewForbiddenError("asset approval permission required", internal.ErrCodeUnauthorizedAccess)
	}

	a, err := s.repo.GetByID(requestID)
	if err != nil {
		return nil, internal.NewNotFoundError("approval request not found", internal.ErrCodeRequestNotFound)
	}
	if a.RequesterID == actor.ID {
		return nil, internal.NewForbiddenError("cannot review your own request", internal.ErrCodeUnauthorizedAccess)
	}
	if a.Status == StatusApproved || a.Status == StatusRejected {
		return nil, internal.NewConflictError("request has already been decided", internal.ErrCodeInvalidStatus)
	}

	a.Status = dto.Status
	a.DecidedBy = actor.ID
	a.DecisionNote = dto.Note
	a.UpdatedAt = time.Now()

	if err := s.repo.Update(a); err != nil {
		s.logger.Error("failed to decide approval request", "error", err, "request_id", requestID)
		return nil, internal.NewInternalError("failed to decide approval request", err)
	}

	s.publisher.Publish(ctx, events.ChangeEvent{
		ID:         a.ID,
		Kind:       events.KindApproval,
		Type:       events.ChangeModified,
		Record:     a,
		OccurredAt: a.UpdatedAt,
	})
	s.audit.Record(ctx, "marked request "+a.Title+" as "+a.Status, actor.ID, actor.Name, "approval_request", a.ID)

	return a, nil
}

func (s *Service) GetRequest(id string) (*ApprovalRequest, error) {
	a, err := s.repo.GetByID(id)
	if err != nil {
		return nil, internal.NewNotFoundError("approval request not found", internal.ErrCodeRequestNotFound)
	}
	return a, nil
}

// GetRequestsForMember lists a member's own tickets. Reading someone
// else's requires the approve-assets or view-reports capability.
func (s *Service) GetRequestsForMember(actor *member.Member, requesterID string) ([]*ApprovalRequest, error) {
	if actor.ID != requesterID &&
		!s.perms.HasCapability(actor.Role, permissions.CapApproveAssets) &&
		!s.perms.HasCapability(actor.Role, permissions.CapViewReports) {
		return nil, internal.NewForbiddenError("cannot view this member's requests", internal.ErrCodeUnauthorizedAccess)
	}
	return s.repo.GetByRequester(requesterID)
}

// GetPendingRequests lists open tickets for the review queue.
func (s *Service) GetPendingRequests(actor *member.Member) ([]*ApprovalRequest, error) {
	if !s.perms.HasCapability(actor.Role, permissions.CapApproveAssets) {
		return nil, internal.NewForbiddenError("asset approval permission required", internal.ErrCodeUnauthorizedAccess)
	}
	return s.repo.GetPending()
}
