package personaltask

import (
	"encoding/json"
	"log/slog"
	"net/http"

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

func (h *Handler) CreatePersonalTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := member.FromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var dto CreatePersonalTaskDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreatePersonalTask: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Service.CreatePersonalTask(r.Context(), actor, dto)
	if err != nil {
		h.Logger.Error("CreatePersonalTask: service error", "error", err, "actor_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, t)
}

func (h *Handler) ListForDay(w http.ResponseWriter, r *http.Request) {
	actor, ok := member.FromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	ownerID := r.URL.Query().Get("owner_id")
	if ownerID == "" {
		ownerID = actor.ID
	}
	day := r.URL.Query().Get("day")
	if day == "" {
		h.WriteError(w, http.StatusBadRequest, "day query parameter is required")
		return
	}

	tasks, err := h.Service.GetForDay(actor, ownerID, day)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"personal_tasks": tasks,
	})
}

func (h *Handler) UpdatePersonalTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := member.FromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	taskID := chi.URLParam(r, "id")

	var dto UpdatePersonalTaskDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdatePersonalTask: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	t, err := h.Service.UpdatePersonalTask(r.Context(), actor, taskID, dto)
	if err != nil {
		h.Logger.Error("UpdatePersonalTask: service error", "error", err, "task_id", taskID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, t)
}

func (h *Handler) DeletePersonalTask(w http.ResponseWriter, r *http.Request) {
	actor, ok := member.FromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	taskID := chi.URLParam(r, "id")
	if err := h.Service.DeletePersonalTask(r.Context(), actor, taskID); err != nil {
		h.Logger.Error("DeletePersonalTask: service error", "error", err, "task_id", taskID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "deleted"})
}
