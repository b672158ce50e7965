package member

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi"
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

func (h *Handler) requireActor(w http.ResponseWriter, r *http.Request) *Member {
	actor, ok := FromContext(r.Context())
	if !ok || actor == nil {
		h.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return nil
	}
	return actor
}

func (h *Handler) CreateMember(w http.ResponseWriter, r *http.Request) {
	actor := h.requireActor(w, r)
	if actor == nil {
		return
	}

	var dto CreateMemberDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("CreateMember: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.Service.CreateMember(r.Context(), actor, dto)
	if err != nil {
		h.Logger.Error("CreateMember: service error", "error", err, "actor_id", actor.ID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusCreated, m)
}

func (h *Handler) GetCurrentMember(w http.ResponseWriter, r *http.Request) {
	actor := h.requireActor(w, r)
	if actor == nil {
		return
	}
	h.WriteJSON(w, http.StatusOK, actor)
}

func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	actor := h.requireActor(w, r)
	if actor == nil {
		return
	}

	memberID := chi.URLParam(r, "id")
	m, err := h.Service.GetMember(memberID)
	if err != nil {
		h.HandleServiceError(w, err)
		return
	}

	if !h.Service.CanViewMember(actor, m) {
		h.Logger.Warn("GetMember: access denied", "actor_id", actor.ID, "member_id", memberID)
		h.WriteError(w, http.StatusForbidden, "cannot view this member")
		return
	}

	h.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	actor := h.requireActor(w, r)
	if actor == nil {
		return
	}

	members, err := h.Service.ViewableMembers(actor)
	if err != nil {
		h.Logger.Error("ListMembers: service error", "error", err, "actor_id", actor.ID)
		h.WriteError(w, http.StatusInternalServerError, "failed to list members")
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"members": members,
	})
}

func (h *Handler) UpdateMember(w http.ResponseWriter, r *http.Request) {
	actor := h.requireActor(w, r)
	if actor == nil {
		return
	}

	memberID := chi.URLParam(r, "id")

	var dto UpdateMemberDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		h.Logger.Error("UpdateMember: invalid request body", "error", err)
		h.WriteError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	m, err := h.Service.UpdateMember(r.Context(), actor, memberID, dto)
	if err != nil {
		h.Logger.Error("UpdateMember: service error", "error", err, "member_id", memberID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, m)
}

func (h *Handler) DeactivateMember(w http.ResponseWriter, r *http.Request) {
	actor := h.requireActor(w, r)
	if actor == nil {
		return
	}

	memberID := chi.URLParam(r, "id")
	if err := h.Service.DeactivateMember(r.Context(), actor, memberID); err != nil {
		h.Logger.Error("DeactivateMember: service error", "error", err, "member_id", memberID)
		h.HandleServiceError(w, err)
		return
	}

	h.WriteJSON(w, http.StatusOK, map[string]string{"status": "deactivated"})
}
