package kpi

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/workdeskhq/workdesk/internal/member"
	"github.com/workdeskhq/workdesk/internal/transport"
	"github.com/workdeskhq/workdesk/pkg/logger"
)

type Handler struct {
	*transport.BaseHandler
	Service *Service
}

func NewHandler(service *Service) *Handler {
	lg := logger.LoggerWrapper()
	if lg == nil {
		lg = slog.Default()
	}
	return &Handler{
		BaseHandler: transport.NewBaseHandler(lg),
		Service:     service,
	}
}

// parseRange reads ?from= and ?to=, defaulting to the current calendar
// month.
func parseRange(r *http.Request) (time.Time, time.Time, bool) {
	now := time.Now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, -1)

	if v := r.URL.Query().Get("from"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, false
		}
		from = parsed
	}
	if v := r.URL.Query().Get("to"); v != "" {
		parsed, err := time.Parse("2006-01-02", v)
		if err != nil {
			return from, to, false
		}
		to = parsed
	}
	return from, to, true
}

func (h *Handler) GetMemberScore(w http.ResponseWriter, r *http.Request) {
	actor, ok := member.FromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	from, to, ok := parseRange(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "from and to must be formatted as YYYY-MM-DD")
		return
	}

	memberID := chi.URLParam(r, "id")
	result, err := h.Service.ScoreMember(actor, memberID, from, to)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, result)
}

func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	actor, ok := member.FromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	from, to, ok := parseRange(r)
	if !ok {
		h.WriteError(w, http.StatusBadRequest, "from and to must be formatted as YYYY-MM-DD")
		return
	}

	results, err := h.Service.Leaderboard(actor, from, to)
	if err != nil {
		h.Logger.Error("GetLeaderboard: service error", "error", err, "actor_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"leaderboard": results,
		"range": map[string]string{
			"from": from.Format("2006-01-02"),
			"to":   to.Format("2006-01-02"),
		},
	})
}
