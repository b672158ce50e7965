package audit

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/workdeskhq/workdesk/internal/member"
	"github.com/workdeskhq/workdesk/internal/transport"
	"github.com/workdeskhq/workdesk/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Recorder *Recorder
}

func NewHandler(recorder *Recorder) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Recorder:    recorder,
	}
}

// GetHistory lists recent entries, optionally filtered to one target
// via ?target_type=&target_id=. Route-level middleware restricts this
// to holders of the view-history capability.
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	if _, ok := member.FromContext(r.Context()); !ok {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	targetType := r.URL.Query().Get("target_type")
	targetID := r.URL.Query().Get("target_id")

	var (
		entries []*Entry
		err     error
	)
	if targetType != "" && targetID != "" {
		entries, err = h.Recorder.GetByTarget(targetType, targetID)
	} else {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		entries, err = h.Recorder.GetRecent(limit)
	}
	if err != nil {
		h.Logger.Error("GetHistory: failed to load entries", "error", err)
		h.WriteError(w, http.StatusInternalServerError, "failed to load history")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"entries": entries,
	})
}
