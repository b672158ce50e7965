package events

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"
)

// ChangeType mirrors the document-store change feed: a record was added,
// modified, or removed.
type ChangeType string

const (
	ChangeAdded    ChangeType = "added"
	ChangeModified ChangeType = "modified"
	ChangeRemoved  ChangeType = "removed"
)

// Entity kinds carried on the bus. One subscription per kind, matching the
// per-collection live queries of the original store.
const (
	KindTask         = "tasks"
	KindPersonalTask = "personal_tasks"
	KindMember       = "members"
	KindWorkReport   = "work_reports"
	KindApproval     = "approval_requests"
	KindWeeklyPlan   = "weekly_plans"
	KindRoleConfig   = "role_configs"
	KindSystemConfig = "system_configs"
)

// ChangeEvent is published after a write has been confirmed by storage;
// there are no optimistic events for writes still in flight.
type ChangeEvent struct {
	ID         string      `json:"id"`
	Kind       string      `json:"kind"`
	Type       ChangeType  `json:"type"`
	Record     interface{} `json:"record"`
	OccurredAt time.Time   `json:"occurred_at"`
}

type Handler func(ctx context.Context, event ChangeEvent) error

type subscription struct {
	id      uint64
	handler Handler
}

// Bus is the in-process change-event fan-out. Subscribers get an unsubscribe
// func and must call it when their consuming context goes away, so stale
// callbacks never fire against abandoned state.
type Bus struct {
	subs   map[string][]subscription
	nextID uint64
	logger *slog.Logger
	mu     sync.RWMutex
}

func NewBus(logger *slog.Logger) *Bus {
	return &Bus{
		subs:   make(map[string][]subscription),
		logger: logger,
	}
}

// Subscribe registers a handler for one entity kind and returns the
// unsubscribe func.
func (b *Bus) Subscribe(kind string, handler Handler) func() {
	b.mu.Lock()
	b.nextID++
	id := b.nextID
	b.subs[kind] = append(b.subs[kind], subscription{id: id, handler: handler})
	total := len(b.subs[kind])
	b.mu.Unlock()

	b.logger.Info("change subscription registered",
		"kind", kind,
		"total_subscribers", total)

	return func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		subs := b.subs[kind]
		for i, s := range subs {
			if s.id == id {
				b.subs[kind] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Publish delivers the event to all subscribers of its kind asynchronously.
func (b *Bus) Publish(ctx context.Context, event ChangeEvent) {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs[event.Kind]))
	copy(subs, b.subs[event.Kind])
	b.mu.RUnlock()

	if len(subs) == 0 {
		b.logger.Debug("no subscribers for change event", "kind", event.Kind)
		return
	}

	b.logger.Debug("publishing change event",
		"kind", event.Kind,
		"change_type", event.Type,
		"event_id", event.ID,
		"subscribers", len(subs))

	for _, s := range subs {
		go func(h Handler) {
			if err := h(ctx, event); err != nil {
				b.logger.Error("change handler failed",
					"kind", event.Kind,
					"event_id", event.ID,
					"error", err)
			}
		}(s.handler)
	}
}

// PublishSync delivers the event in subscriber order and stops on the first
// handler error. Used by tests and by callers that need ordering.
func (b *Bus) PublishSync(ctx context.Context, event ChangeEvent) error {
	b.mu.RLock()
	subs := make([]subscription, len(b.subs[event.Kind]))
	copy(subs, b.subs[event.Kind])
	b.mu.RUnlock()

	for _, s := range subs {
		if err := s.handler(ctx, event); err != nil {
			b.logger.Error("change handler failed",
				"kind", event.Kind,
				"event_id", event.ID,
				"error", err)
			return fmt.Errorf("handler failed for %s change: %w", event.Kind, err)
		}
	}

	return nil
}
