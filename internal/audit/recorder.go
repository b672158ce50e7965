package audit

import (
	"context"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Repository defines the data access methods for audit entries.
type Repository interface {
	Append(e *Entry) error
	GetRecent(limit int) ([]*Entry, error)
	GetByTarget(targetType, targetID string) ([]*Entry, error)
}

// Recorder appends history entries fire-and-forget: a failed write is
// logged and dropped, it never fails the action being recorded.
type Recorder struct {
	repo   Repository
	logger *slog.Logger
}

func NewRecorder(repo Repository, logger *slog.Logger) *Recorder {
	return &Recorder{repo: repo, logger: logger}
}

func (r *Recorder) Record(ctx context.Context, action, actorID, actorName, targetType, targetID string) {
	e := &Entry{
		ID:         uuid.NewString(),
		Action:     action,
		ActorID:    actorID,
		ActorName:  actorName,
		TargetType: targetType,
		TargetID:   targetID,
		CreatedAt:  time.Now(),
	}
	go func() {
		if err := r.repo.Append(e); err != nil {
			r.logger.Warn("audit append failed", "error", err, "action", action)
		}
	}()
}

// GetRecent returns the newest entries for the history view.
func (r *Recorder) GetRecent(limit int) ([]*Entry, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	return r.repo.GetRecent(limit)
}

// GetByTarget returns the history of one record.
func (r *Recorder) GetByTarget(targetType, targetID string) ([]*Entry, error) {
	return r.repo.GetByTarget(targetType, targetID)
}
