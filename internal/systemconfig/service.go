package systemconfig

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/workdeskhq/workdesk/internal"
	"github.com/workdeskhq/workdesk/internal/core/events"
	"github.com/workdeskhq/workdesk/internal/member"
	"github.com/workdeskhq/workdesk/internal/permissions"
)

// Repository defines the data access methods for announcements.
type Repository interface {
	Create(a *Announcement) error
	GetByID(id string) (*Announcement, error)
	GetAll() ([]*Announcement, error)
	Delete(id string) error
}

// PermissionChecker resolves the current capability matrix.
type PermissionChecker interface {
	HasCapability(role permissions.Role, cap permissions.Capability) bool
}

// Publisher pushes config change events to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, event events.ChangeEvent)
}

// Service manages department announcements.
type Service struct {
	repo      Repository
	perms     PermissionChecker
	publisher Publisher
	logger    *slog.Logger
}

func NewService(repo Repository, perms PermissionChecker, publisher Publisher, logger *slog.Logger) *Service {
	return &Service{
		repo:      repo,
		perms:     perms,
		publisher: publisher,
		logger:    logger,
	}
}

// CreateAnnouncementDTO is the request payload for posting a notice.
type CreateAnnouncementDTO struct {
	Title    string     `json:"title"`
	Message  string     `json:"message"`
	StartsAt time.Time  `json:"starts_at"`
	EndsAt   *time.Time `json:"ends_at"`
}

func (dto CreateAnnouncementDTO) Validate() error {
	if dto.Title == "" {
		return internal.NewValidationFieldError("title", "title is required", internal.ErrCodeValidationFailed)
	}
	if dto.EndsAt != nil && !dto.StartsAt.IsZero() && dto.EndsAt.Before(dto.StartsAt) {
		return internal.NewValidationFieldError("ends_at", "ends_at cannot be before starts_at", internal.ErrCodeInvalidDate)
	}
	return nil
}

// CreateAnnouncement posts a notice; requires the configure-system
// capability.
func (s *Service) CreateAnnouncement(ctx context.Context, actor *member.Member, dto CreateAnnouncementDTO) (*Announcement, error) {
	if !s.perms.HasCapability(actor.Role, permissions.CapConfigureSystem) {
		return nil, internal.NewForbiddenError("system configuration permission required", internal.ErrCodeUnauthorizedAccess)
	}
	if err := dto.Validate(); err != nil {
		return nil, err
	}

	now := time.Now()
	startsAt := dto.StartsAt
	if startsAt.IsZero() {
		startsAt = now
	}
	a := &Announcement{
		ID:        uuid.NewString(),
		Title:     dto.Title,
		Message:   dto.Message,
		StartsAt:  startsAt,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if dto.EndsAt != nil {
		a.EndsAt = *dto.EndsAt
	}

	if err := s.repo.Create(a); err != nil {
		s.logger.Error("failed to create announcement", "error", err)
		return nil, internal.NewInternalError("failed to create announcement", err)
	}

	s.publisher.Publish(ctx, events.ChangeEvent{
		ID:         a.ID,
		Kind:       events.KindSystemConfig,
		Type:       events.ChangeAdded,
		Record:     a,
		OccurredAt: now,
	})

	return a, nil
}

// ActiveAnnouncements lists notices whose window contains now.
func (s *Service) ActiveAnnouncements(now time.Time) ([]*Announcement, error) {
	all, err := s.repo.GetAll()
	if err != nil {
		return nil, internal.NewInternalError("failed to load announcements", err)
	}
	var active []*Announcement
	for _, a := range all {
		if a.IsActiveAt(now) {
			active = append(active, a)
		}
	}
	return active, nil
}

// AllAnnouncements lists every notice for the admin view.
func (s *Service) AllAnnouncements(actor *member.Member) ([]*Announcement, error) {
	if !s.perms.HasCapability(actor.Role, permissions.CapConfigureSystem) {
		return nil, internal.NewForbiddenError("system configuration permission required", internal.ErrCodeUnauthorizedAccess)
	}
	return s.repo.GetAll()
}

// DeleteAnnouncement removes a notice; requires the configure-system
// capability.
func (s *Service) DeleteAnnouncement(ctx context.Context, actor *member.Member, id string) error {
	if !s.perms.HasCapability(actor.Role, permissions.CapConfigureSystem) {
		return internal.NewForbiddenError("system configuration permission required", internal.ErrCodeUnauthorizedAccess)
	}

	a, err := s.repo.GetByID(id)
	if err != nil {
		return internal.NewNotFoundError("announcement not found", internal.ErrCodeValidationFailed)
	}
	if err := s.repo.Delete(id); err != nil {
		s.logger.Error("failed to delete announcement", "error", err, "announcement_id", id)
		return internal.NewInternalError("failed to delete announcement", err)
	}

	s.publisher.Publish(ctx, events.ChangeEvent{
		ID:         a.ID,
		Kind:       events.KindSystemConfig,
		Type:       events.ChangeRemoved,
		Record:     a,
		OccurredAt: time.Now(),
	})

	return nil
}

// Broadcaster delivers a payload to every connected member.
type Broadcaster interface {
	Broadcast(payload []byte)
}

// Watcher re-evaluates announcement windows on a coarse interval and
// broadcasts the active set whenever it changes, so clients do not need
// their own window arithmetic.
type Watcher struct {
	service     *Service
	broadcaster Broadcaster
	interval    time.Duration
	logger      *slog.Logger

	lastActive string
}

func NewWatcher(service *Service, broadcaster Broadcaster, interval time.Duration, logger *slog.Logger) *Watcher {
	if interval <= 0 {
		interval = time.Minute
	}
	return &Watcher{
		service:     service,
		broadcaster: broadcaster,
		interval:    interval,
		logger:      logger,
	}
}

// Run ticks until the context is cancelled.
func (w *Watcher) Run(ctx context.Context) {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case now := <-ticker.C:
			w.tick(now)
		}
	}
}

func (w *Watcher) tick(now time.Time) {
	active, err := w.service.ActiveAnnouncements(now)
	if err != nil {
		w.logger.Warn("announcement re-evaluation failed", "error", err)
		return
	}

	payload, err := json.Marshal(map[string]interface{}{
		"type":          "announcements",
		"announcements": active,
	})
	if err != nil {
		w.logger.Error("failed to encode announcements", "error", err)
		return
	}

	key := string(payload)
	if key == w.lastActive {
		return
	}
	w.lastActive = key
	w.broadcaster.Broadcast(payload)
}
