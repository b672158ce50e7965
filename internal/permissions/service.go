package permissions

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/workdeskhq/workdesk/internal"
	"github.com/workdeskhq/workdesk/internal/core/events"
)

// Repository is the data access contract for role config overrides.
type Repository interface {
	GetAll() ([]*RoleConfig, error)
	Upsert(config *RoleConfig) error
}

// Publisher pushes role config change events to live subscribers.
type Publisher interface {
	Publish(ctx context.Context, event events.ChangeEvent)
}

// Service resolves the effective permission matrix: built-in defaults with
// any persisted admin override deep-merged on top. A load failure falls back
// to the defaults because permission data must never block the UI.
type Service struct {
	repo      Repository
	publisher Publisher
	logger    *slog.Logger

	mu     sync.RWMutex
	matrix Matrix
}

func NewService(repo Repository, publisher Publisher, logger *slog.Logger) *Service {
	s := &Service{
		repo:      repo,
		publisher: publisher,
		logger:    logger,
		matrix:    DefaultMatrix(),
	}
	s.Refresh()
	return s
}

// Refresh reloads the override rows and rebuilds the merged matrix.
func (s *Service) Refresh() {
	configs, err := s.repo.GetAll()
	if err != nil {
		s.logger.Warn("failed to load role config overrides, using defaults", "error", err)
		s.mu.Lock()
		s.matrix = DefaultMatrix()
		s.mu.Unlock()
		return
	}

	override := make(Matrix, len(configs))
	for _, cfg := range configs {
		if cfg.Capabilities == nil {
			continue
		}
		override[cfg.Role] = cfg.Capabilities
	}

	s.mu.Lock()
	s.matrix = Merge(override)
	s.mu.Unlock()

	s.logger.Info("permission matrix loaded", "override_roles", len(override))
}

// Matrix returns the current merged table.
func (s *Service) Matrix() Matrix {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make(Matrix, len(s.matrix))
	for role, caps := range s.matrix {
		copied := make(CapabilitySet, len(caps))
		for c, v := range caps {
			copied[c] = v
		}
		out[role] = copied
	}
	return out
}

func (s *Service) HasCapability(role Role, cap Capability) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.matrix.HasCapability(role, cap)
}

func (s *Service) Level(role Role) int {
	return RoleLevel(role)
}

// UpdateRole persists one role's override and publishes the change so every
// cached matrix (including this service's own) converges.
func (s *Service) UpdateRole(ctx context.Context, actorID string, dto UpdateRoleConfigDTO) (*RoleConfig, error) {
	if err := dto.Validate(); err != nil {
		s.logger.Error("role config validation failed", "error", err, "role", dto.Role)
		return nil, err
	}

	config := &RoleConfig{
		Role:         dto.Role,
		Label:        RoleLabel(dto.Role),
		Capabilities: dto.Capabilities,
		UpdatedBy:    actorID,
		UpdatedAt:    time.Now(),
	}

	if err := s.repo.Upsert(config); err != nil {
		s.logger.Error("failed to persist role config", "error", err, "role", dto.Role)
		return nil, internal.NewInternalError("failed to save role configuration", err)
	}

	s.Refresh()

	s.publisher.Publish(ctx, events.ChangeEvent{
		ID:         string(config.Role),
		Kind:       events.KindRoleConfig,
		Type:       events.ChangeModified,
		Record:     config,
		OccurredAt: time.Now(),
	})

	s.logger.Info("role config updated", "role", dto.Role, "actor_id", actorID)

	return config, nil
}
